package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

func (s *Server) listFlows(c *gin.Context) {
	flows, err := s.store.List(c.Request.Context())
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{
				Error:  "Document not found",
				Status: http.StatusNotFound,
			})
			return
		}
		slog.Error("Failed to fetch flows", log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to fetch flows",
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))
	flow, err := s.store.Get(c.Request.Context(), flowID)
	if err != nil {
		if errors.Is(err, store.ErrFlowNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{
				Error:  "Flow not found",
				Status: http.StatusNotFound,
			})
			return
		}
		slog.Error("Failed to fetch flow",
			log.FlowID(flowID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to fetch flow",
			Status: http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (s *Server) addFlow(c *gin.Context) {
	var req api.AddFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Invalid request body",
			Status: http.StatusBadRequest,
		})
		return
	}
	if req.Flow == nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Flow is required",
			Status: http.StatusBadRequest,
		})
		return
	}

	flow := req.Flow.Normalize()
	if err := flow.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	created, err := s.store.Put(c.Request.Context(), flow)
	if err != nil {
		slog.Error("Failed to add/update flow",
			log.FlowID(flow.ID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to add/update flow",
			Status: http.StatusInternalServerError,
		})
		return
	}

	slog.Info("Flow saved",
		log.FlowID(flow.ID),
		slog.Bool("created", created),
		slog.Int("steps", len(flow.Steps)))
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Flow added/updated successfully",
	})
}

func (s *Server) deleteFlow(c *gin.Context) {
	flowID := api.FlowID(c.Query("flowId"))
	if flowID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Invalid flow ID",
			Status: http.StatusBadRequest,
		})
		return
	}

	err := s.store.Delete(c.Request.Context(), flowID)
	switch {
	case err == nil:
		slog.Info("Flow deleted", log.FlowID(flowID))
		c.JSON(http.StatusOK, api.MessageResponse{
			Message: "Flow deleted successfully",
		})
	case errors.Is(err, store.ErrFlowNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  "Flow not found",
			Status: http.StatusNotFound,
		})
	case errors.Is(err, store.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  "Document not found",
			Status: http.StatusNotFound,
		})
	default:
		slog.Error("Failed to delete flow",
			log.FlowID(flowID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to delete flow",
			Status: http.StatusInternalServerError,
		})
	}
}

func (s *Server) getActivity(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Snapshot())
}
