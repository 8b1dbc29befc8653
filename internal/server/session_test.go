package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/appflow/internal/assert"
	"github.com/kode4food/appflow/internal/assert/helpers"
	"github.com/kode4food/appflow/pkg/api"
)

type testSocketEnv struct {
	*testServerEnv
	HTTP *httptest.Server
	Conn *websocket.Conn
}

const (
	wsReadTimeout  = 500 * time.Millisecond
	wsEventTimeout = time.Second
	untrusted      = "https://evil.example"
)

func testSocket(t *testing.T, flow *api.Flow) *testSocketEnv {
	t.Helper()

	env := testServer(t)
	_, err := env.Store.Put(context.Background(), flow)
	testify.NoError(t, err)

	hs := httptest.NewServer(env.Router)
	conn, _, err := websocket.DefaultDialer.Dial(socketURL(hs, flow.ID), nil)
	testify.NoError(t, err)

	return &testSocketEnv{
		testServerEnv: env,
		HTTP:          hs,
		Conn:          conn,
	}
}

func (e *testSocketEnv) Cleanup() {
	if e.Conn != nil {
		_ = e.Conn.Close()
	}
	e.HTTP.Close()
	e.testServerEnv.Cleanup()
}

func (e *testSocketEnv) send(t *testing.T, origin, data string) {
	t.Helper()
	msg := `{"origin":"` + origin + `","data":` + data + `}`
	testify.NoError(t, e.Conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func (e *testSocketEnv) score(t *testing.T, origin string, score string) {
	t.Helper()
	e.send(t, origin, `{"type":"score","score":`+score+`}`)
}

func (e *testSocketEnv) read(t *testing.T) *api.PlayerCommand {
	t.Helper()
	_ = e.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var cmd api.PlayerCommand
	if !testify.NoError(t, e.Conn.ReadJSON(&cmd)) {
		t.FailNow()
	}
	return &cmd
}

func (e *testSocketEnv) expectSilence(t *testing.T) {
	t.Helper()
	_ = e.Conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := e.Conn.ReadMessage()
	testify.Error(t, err)
}

func socketURL(hs *httptest.Server, id api.FlowID) string {
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/" + string(id) + "/ws"
}

func TestSessionInitialCommand(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))
	defer env.Cleanup()

	cmd := env.read(t)
	testify.Equal(t, api.CommandEmbed, cmd.Type)
	testify.Equal(t, "https://a.example/start", cmd.URL)
	testify.Equal(t, 0, cmd.Index)
}

func TestSessionExampleFlow(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))
	defer env.Cleanup()

	env.read(t)

	env.score(t, helpers.TestOrigin, "60")
	cmd := env.read(t)
	testify.Equal(t, api.CommandEmbed, cmd.Type)
	testify.Equal(t, "https://b.example/next", cmd.URL)
	testify.Equal(t, 1, cmd.Index)

	env.score(t, helpers.TestOrigin, "90")
	cmd = env.read(t)
	testify.Equal(t, api.CommandRedirect, cmd.Type)
	testify.Equal(t, "https://c.example/end", cmd.URL)
	testify.Equal(t, 2, cmd.Index)

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := env.Conn.ReadMessage()
	testify.True(t,
		websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"expected normal closure, got %v", err,
	)
}

func TestSessionThresholdNotMet(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))
	defer env.Cleanup()

	env.read(t)

	env.score(t, helpers.TestOrigin, "50")
	env.expectSilence(t)
}

func TestSessionDropsUntrusted(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))
	defer env.Cleanup()

	env.read(t)

	env.score(t, untrusted, "99")
	env.send(t, helpers.TestOrigin, `{"type":"score"}`)
	env.send(t, helpers.TestOrigin, `"score"`)
	testify.NoError(t,
		env.Conn.WriteMessage(websocket.TextMessage, []byte("not json")),
	)

	env.score(t, helpers.TestOrigin, "51")
	cmd := env.read(t)
	testify.Equal(t, 1, cmd.Index)
	testify.Equal(t, "https://b.example/next", cmd.URL)

	as := assert.New(t)
	as.Eventually(func() bool {
		snap := env.Monitor.Snapshot()
		return snap.Counts[api.EventMessageRejected] == 4 &&
			snap.Counts[api.EventStepAdvanced] == 1
	}, wsEventTimeout, "rejected messages should be counted")
}

func TestSessionPlaceholder(t *testing.T) {
	flow := &api.Flow{
		ID: "f1",
		Steps: []*api.Step{
			{URL: "https://a.example/start"},
			{URL: "https://play.google.com/store/apps", Conditional: 10},
		},
	}
	env := testSocket(t, flow)
	defer env.Cleanup()

	env.read(t)

	env.score(t, helpers.TestOrigin, "11")
	cmd := env.read(t)
	testify.Equal(t, api.CommandPlaceholder, cmd.Type)
	testify.Equal(t, api.PlaceholderText, cmd.Text)
	testify.Equal(t, 1, cmd.Index)

	env.score(t, helpers.TestOrigin, "100")
	env.expectSilence(t)
}

func TestSessionLifecycleEvents(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))

	env.read(t)
	as := assert.New(t)
	as.Eventually(func() bool {
		return env.Server.SessionCount() == 1 &&
			env.Monitor.Snapshot().Active == 1
	}, wsEventTimeout, "session should be active")

	_ = env.Conn.Close()
	env.Conn = nil

	as.Eventually(func() bool {
		snap := env.Monitor.Snapshot()
		return env.Server.SessionCount() == 0 &&
			snap.Active == 0 &&
			snap.Counts[api.EventSessionEnded] == 1
	}, wsEventTimeout, "session should end with the connection")

	env.Cleanup()
}

func TestCloseSessions(t *testing.T) {
	env := testSocket(t, helpers.NewExampleFlow("f1"))
	defer env.Cleanup()

	env.read(t)
	as := assert.New(t)
	as.Eventually(func() bool {
		return env.Server.SessionCount() == 1
	}, wsEventTimeout, "session should be registered")

	env.Server.CloseSessions()

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := env.Conn.ReadMessage()
	as.Error(err)
	as.Eventually(func() bool {
		return env.Server.SessionCount() == 0
	}, wsEventTimeout, "session should be removed")
}

func TestSessionUnknownFlow(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	hs := httptest.NewServer(env.Router)
	defer hs.Close()

	_, resp, err := websocket.DefaultDialer.Dial(socketURL(hs, "missing"), nil)
	testify.Error(t, err)
	if testify.NotNil(t, resp) {
		testify.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}
