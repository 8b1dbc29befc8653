package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

type errStub string

func TestFlowID(t *testing.T) {
	attr := log.FlowID(api.FlowID("flow-123"))
	assertAttrEqual(t, attr, "flow_id", "flow-123")
}

func TestSessionID(t *testing.T) {
	attr := log.SessionID("sess-abc")
	assertAttrEqual(t, attr, "session_id", "sess-abc")
}

func TestOrigin(t *testing.T) {
	attr := log.Origin("https://trusted.example")
	assertAttrEqual(t, attr, "origin", "https://trusted.example")
}

func TestURL(t *testing.T) {
	attr := log.URL("https://a.example")
	assertAttrEqual(t, attr, "url", "https://a.example")
}

func TestIndex(t *testing.T) {
	attr := log.Index(2)
	assert.Equal(t, "index", attr.Key)
	assert.Equal(t, int64(2), attr.Value.Int64())
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
