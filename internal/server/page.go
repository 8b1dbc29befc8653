package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/appflow/internal/player"
	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

type (
	playerPage struct {
		FlowID      api.FlowID
		URL         string
		Placeholder bool
		Text        string
		SocketPath  string
	}

	notFoundPage struct {
		FlowID api.FlowID
	}
)

const (
	playerTemplate   = "player.html"
	notFoundTemplate = "notfound.html"
)

func (s *Server) handlePlayerPage(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))
	if err := api.ValidateID(flowID); err != nil {
		c.HTML(http.StatusNotFound, notFoundTemplate, notFoundPage{
			FlowID: flowID,
		})
		return
	}

	flow, err := s.store.Get(c.Request.Context(), flowID)
	if err != nil {
		if errors.Is(err, store.ErrFlowNotFound) {
			c.HTML(http.StatusNotFound, notFoundTemplate, notFoundPage{
				FlowID: flowID,
			})
			return
		}
		slog.Error("Failed to load flow",
			log.FlowID(flowID),
			log.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load flow")
		return
	}

	p, err := player.New(flow, s.origins)
	if err != nil {
		c.HTML(http.StatusNotFound, notFoundTemplate, notFoundPage{
			FlowID: flowID,
		})
		return
	}

	c.HTML(http.StatusOK, playerTemplate, newPlayerPage(p))
}

func newPlayerPage(p *player.Player) playerPage {
	action := p.Current()
	res := playerPage{
		FlowID:      p.FlowID(),
		URL:         action.URL,
		Placeholder: action.Placeholder,
		SocketPath:  "/" + string(p.FlowID()) + "/ws",
	}
	if action.Placeholder {
		res.Text = api.PlaceholderText
	}
	return res
}
