package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/appflow/internal/auth"
	"github.com/kode4food/appflow/internal/monitor"
	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
	"github.com/kode4food/appflow/pkg/util"
)

type (
	// Server implements the HTTP server for flow players and flow admin
	Server struct {
		store    store.Store
		auth     *auth.Authenticator
		monitor  *monitor.Monitor
		origins  []string
		sessions util.Set[*Session]
		mu       sync.Mutex
	}

	// Dependencies are the collaborators a Server needs
	Dependencies struct {
		Store          store.Store
		Auth           *auth.Authenticator
		Monitor        *monitor.Monitor
		TrustedOrigins []string
	}
)

const flowsPath = "/api/flows"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").ParseFS(templateFS, "templates/*.html"),
)

// NewServer creates a new HTTP server
func NewServer(deps Dependencies) *Server {
	return &Server{
		store:    deps.Store,
		auth:     deps.Auth,
		monitor:  deps.Monitor,
		origins:  deps.TrustedOrigins,
		sessions: util.Set[*Session]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.SetHTMLTemplate(templates)
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  "Not Found",
			Status: http.StatusNotFound,
		})
	})
	router.NoMethod(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, flowsPath+"/") &&
			!s.authorize(c) {
			return
		}
		c.JSON(http.StatusMethodNotAllowed, api.ErrorResponse{
			Error:  "Method Not Allowed",
			Status: http.StatusMethodNotAllowed,
		})
	})

	// Health check
	router.GET("/health", s.handleHealth)

	// Administrator sessions
	authAPI := router.Group("/api/auth")
	{
		authAPI.POST("/signin", s.signIn)
		authAPI.POST("/signout", s.signOut)
		authAPI.GET("/session", s.requireSession, s.getSession)
	}

	// Flow administration
	flows := router.Group(flowsPath, s.requireSession)
	{
		flows.GET("/get-flows", s.listFlows)
		flows.POST("/add-flow", s.addFlow)
		flows.DELETE("/delete-flow", s.deleteFlow)
		flows.GET("/flow/:flowID", s.getFlow)
		flows.GET("/activity", s.getActivity)
	}

	// Flow players
	router.GET("/:flowID", s.handlePlayerPage)
	router.GET("/:flowID/ws", s.handlePlayerSocket)

	return router
}

func (s *Server) registerSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Add(sess)
}

func (s *Server) unregisterSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(sess)
}

// CloseSessions closes all active player sessions
func (s *Server) CloseSessions() {
	s.mu.Lock()
	sessions := s.sessions.Items()
	s.mu.Unlock()

	for _, sess := range sessions {
		slog.Debug("Closing player session", log.SessionID(sess.ID()))
		sess.Close()
	}
}

// SessionCount returns the number of open player sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}
