package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/appflow/internal/auth"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

const (
	// SessionCookie is the name of the administrator session cookie
	SessionCookie = "appflow_session"

	claimsKey    = "claims"
	bearerPrefix = "Bearer "
)

func (s *Server) signIn(c *gin.Context) {
	var req api.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Invalid request body",
			Status: http.StatusBadRequest,
		})
		return
	}

	token, claims, err := s.auth.SignIn(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{
				Error:  "Invalid credentials",
				Status: http.StatusUnauthorized,
			})
			return
		}
		slog.Error("Failed to issue session", log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to sign in",
			Status: http.StatusInternalServerError,
		})
		return
	}

	s.setSessionCookie(c, token)
	c.JSON(http.StatusOK, api.SessionResponse{
		User:  claims.User(),
		Token: token,
	})
}

func (s *Server) signOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", isSecure(c), true)
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Signed out",
	})
}

func (s *Server) getSession(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	c.JSON(http.StatusOK, api.SessionResponse{
		User: claims.User(),
	})
}

// requireSession rejects requests without a valid administrator session.
// Sessions past the update age are re-issued in a fresh cookie
func (s *Server) requireSession(c *gin.Context) {
	if s.authorize(c) {
		c.Next()
	}
}

// authorize verifies the request's session, aborting with 401 when it is
// missing or invalid
func (s *Server) authorize(c *gin.Context) bool {
	claims, err := s.auth.Verify(sessionToken(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
			Error:  "Unauthorized",
			Status: http.StatusUnauthorized,
		})
		return false
	}

	if s.auth.NeedsRefresh(claims) {
		token, fresh, err := s.auth.Issue()
		if err != nil {
			slog.Warn("Failed to refresh session", log.Error(err))
		} else {
			s.setSessionCookie(c, token)
			claims = fresh
		}
	}

	c.Set(claimsKey, claims)
	return true
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookie, token, int(s.auth.MaxAge().Seconds()),
		"/", "", isSecure(c), true,
	)
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil ||
		c.GetHeader("X-Forwarded-Proto") == "https"
}
