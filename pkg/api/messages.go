package api

type (
	// AddFlowRequest carries a flow to create or replace
	AddFlowRequest struct {
		Flow *Flow `json:"flow"`
	}

	// FlowsListResponse contains every stored flow
	FlowsListResponse struct {
		Flows []*Flow `json:"flows"`
		Count int     `json:"count"`
	}

	// SignInRequest carries administrator credentials
	SignInRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	// SessionUser describes the signed-in administrator
	SessionUser struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// SessionResponse is returned by sign-in and session lookups
	SessionResponse struct {
		User  *SessionUser `json:"user"`
		Token string       `json:"token,omitempty"`
	}

	// ActivityResponse reports player session counters
	ActivityResponse struct {
		Counts map[PlayerEventType]int64 `json:"counts"`
		Active int64                     `json:"active"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Error   string `json:"error,omitempty"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)
