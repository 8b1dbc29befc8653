package helpers

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/api"
)

// TestStoreEnv holds a Redis-backed flow store running against miniredis
type TestStoreEnv struct {
	Store   *store.RedisStore
	Redis   *miniredis.Miniredis
	Config  *config.Config
	Cleanup func()
}

const (
	TestOrigin   = "https://assessment.example"
	TestUsername = "admin"
	TestPassword = "hunter2"
	TestSecret   = "test-secret-test-secret-test-secret"
)

// NewTestConfig creates a valid configuration with debug logging, a single
// trusted origin, and known admin credentials
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.TrustedOrigins = []string{TestOrigin}
	cfg.Auth.Username = TestUsername
	cfg.Auth.Password = TestPassword
	cfg.Auth.Secret = TestSecret
	return cfg
}

// NewTestStore creates a flow store backed by an in-memory Redis server
func NewTestStore(t *testing.T) *TestStoreEnv {
	t.Helper()

	server, err := miniredis.Run()
	assert.NoError(t, err)

	cfg := NewTestConfig()
	cfg.Store.Redis.Addr = server.Addr()
	cfg.Store.Redis.Prefix = "test-flows"

	s := store.NewRedisStore(cfg.Store.Redis)

	return &TestStoreEnv{
		Store:  s,
		Redis:  server,
		Config: cfg,
		Cleanup: func() {
			_ = s.Close()
			server.Close()
		},
	}
}

// NewExampleFlow returns a three step flow: A is embedded, B unlocks above
// 50, and C unlocks above 80 with a top-level redirect
func NewExampleFlow(id api.FlowID) *api.Flow {
	return &api.Flow{
		ID: id,
		Steps: []*api.Step{
			{URL: "https://a.example/start", Conditional: 0},
			{URL: "https://b.example/next", Conditional: 50},
			{URL: "https://c.example/end", Conditional: 80, Redirect: true},
		},
	}
}

// NewLinearFlow returns a flow of n embedded steps, each unlocking above
// ten times its index
func NewLinearFlow(id api.FlowID, n int) *api.Flow {
	f := &api.Flow{ID: id}
	for i := range n {
		f.Steps = append(f.Steps, &api.Step{
			URL:         fmt.Sprintf("https://step-%d.example", i),
			Conditional: float64(i * 10),
		})
	}
	return f
}
