package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	appflow "github.com/kode4food/appflow"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		slog.Warn("Store health check failed", log.Error(err))
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{
			Service: appflow.Name,
			Version: appflow.Version,
			Status:  api.HealthUnhealthy,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, api.HealthResponse{
		Service: appflow.Name,
		Version: appflow.Version,
		Status:  api.HealthHealthy,
	})
}
