package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kode4food/appflow/internal/monitor"
	"github.com/kode4food/appflow/internal/player"
	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

// Session relays score messages from one embedding page to its own flow
// player. A Session is owned by a single goroutine
type Session struct {
	id        string
	conn      *websocket.Conn
	player    *player.Player
	events    monitor.Publisher
	done      chan struct{}
	closeOnce sync.Once
}

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	closeGrace         = time.Second
	maxMessageSize     = 4096
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
}

func (s *Server) handlePlayerSocket(c *gin.Context) {
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
		slog.Error("Failed to load flow",
			log.FlowID(flowID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to load flow",
			Status: http.StatusInternalServerError,
		})
		return
	}

	p, err := player.New(flow, s.origins)
	if err != nil {
		slog.Error("Failed to create player",
			log.FlowID(flowID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to start player",
			Status: http.StatusInternalServerError,
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.FlowID(flowID),
			log.Error(err))
		return
	}

	sess := NewSession(conn, p, s.monitor)
	s.registerSession(sess)
	go func() {
		defer s.unregisterSession(sess)
		sess.Run()
	}()
}

// NewSession creates a Session for an upgraded connection
func NewSession(
	conn *websocket.Conn, p *player.Player, events monitor.Publisher,
) *Session {
	return &Session{
		id:     uuid.NewString(),
		conn:   conn,
		player: p,
		events: events,
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Close terminates the session's connection. Run returns shortly after
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Run sends the initial display command and then processes inbound score
// messages until the flow redirects or the connection goes away
func (s *Session) Run() {
	s.publish(api.EventSessionStarted, "", "")
	defer func() {
		s.Close()
		s.publish(api.EventSessionEnded, "", "")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if !s.sendAction(s.player.Current()) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	incoming := make(chan []byte, incomingBufferSize)
	go s.readMessages(incoming)

	for {
		select {
		case message, ok := <-incoming:
			if !ok {
				return
			}
			if !s.handleMessage(message) {
				s.sendClose(incoming)
				return
			}

		case <-ticker.C:
			if !s.sendPing() {
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) readMessages(incoming chan<- []byte) {
	defer close(incoming)
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case incoming <- message:
		case <-s.done:
			return
		}
	}
}

// handleMessage returns false once the session should stop reading
func (s *Session) handleMessage(raw []byte) bool {
	msg, err := api.ParseScoreMessage(raw)
	if err == nil {
		var action player.Action
		action, err = s.player.Handle(msg)
		if err == nil {
			return s.applyAction(action)
		}
	}

	if errors.Is(err, player.ErrPlayerDone) {
		return false
	}
	origin := ""
	if msg != nil {
		origin = msg.Origin
	}
	slog.Debug("Score message dropped",
		log.SessionID(s.id),
		log.FlowID(s.player.FlowID()),
		log.Origin(origin),
		log.Error(err))
	s.publish(api.EventMessageRejected, "", err.Error())
	return true
}

func (s *Session) applyAction(action player.Action) bool {
	switch action.Kind {
	case player.Stay:
		return true
	case player.Redirect:
		s.sendAction(action)
		s.publish(api.EventFlowRedirected, action.URL, "")
		return false
	default:
		if !s.sendAction(action) {
			return false
		}
		s.publish(api.EventStepAdvanced, action.URL, "")
		return true
	}
}

func (s *Session) sendAction(action player.Action) bool {
	cmd, ok := action.Command()
	if !ok {
		return true
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(cmd); err != nil {
		slog.Error("WebSocket write failed",
			log.SessionID(s.id),
			slog.String("command", string(cmd.Type)),
			log.Error(err))
		return false
	}
	return true
}

// sendClose starts the closing handshake and discards anything the peer
// sends until it answers or the grace period runs out
func (s *Session) sendClose(incoming <-chan []byte) {
	msg := websocket.FormatCloseMessage(
		websocket.CloseNormalClosure, "flow complete",
	)
	_ = s.conn.WriteControl(
		websocket.CloseMessage, msg, time.Now().Add(writeWait),
	)

	timeout := time.NewTimer(closeGrace)
	defer timeout.Stop()
	for {
		select {
		case _, ok := <-incoming:
			if !ok {
				return
			}
		case <-timeout.C:
			return
		case <-s.done:
			return
		}
	}
}

func (s *Session) sendPing() bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := s.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}

func (s *Session) publish(typ api.PlayerEventType, url, reason string) {
	if s.events == nil {
		return
	}
	st := s.player.State()
	s.events.Publish(&api.PlayerEvent{
		Type:      typ,
		SessionID: s.id,
		FlowID:    s.player.FlowID(),
		URL:       url,
		Reason:    reason,
		Index:     st.Index,
	})
}
