package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/pkg/api"
)

type (
	// Store reads and writes flow definitions
	Store interface {
		// Get returns the flow with the given ID or ErrFlowNotFound
		Get(ctx context.Context, id api.FlowID) (*api.Flow, error)

		// List returns every flow in stored order, or ErrDocumentNotFound
		// when nothing has ever been written
		List(ctx context.Context) ([]*api.Flow, error)

		// Put inserts or replaces a flow by ID, reporting whether it was
		// newly created
		Put(ctx context.Context, flow *api.Flow) (bool, error)

		// Delete removes a flow by ID
		Delete(ctx context.Context, id api.FlowID) error

		// Ping checks that the backend is reachable
		Ping(ctx context.Context) error

		Close() error
	}

	// document is the persisted layout shared by every backend
	document struct {
		AppFlows []*api.Flow `json:"appFlows"`
	}
)

const documentName = "appFlowsDoc"

var (
	ErrFlowNotFound     = errors.New("flow not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFlow      = errors.New("invalid flow")
	ErrStoreBusy        = errors.New("store busy, too many concurrent writes")
)

// Open creates the backend selected by the configuration
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		return NewRedisStore(cfg.Redis), nil
	case config.StoreBackendBlob:
		return NewBlobStore(ctx, cfg.Blob)
	default:
		return nil, fmt.Errorf(
			"%w: %s", config.ErrInvalidStoreBackend, cfg.Backend,
		)
	}
}

func decodeDocument(data []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", documentName, err)
	}
	return &doc, nil
}

func encodeDocument(doc *document) ([]byte, error) {
	return json.Marshal(doc)
}

func (d *document) find(id api.FlowID) int {
	return slices.IndexFunc(d.AppFlows, func(f *api.Flow) bool {
		return f != nil && f.ID == id
	})
}

func (d *document) get(id api.FlowID) (*api.Flow, error) {
	idx := d.find(id)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return d.AppFlows[idx], nil
}

func (d *document) put(flow *api.Flow) bool {
	idx := d.find(flow.ID)
	if idx == -1 {
		d.AppFlows = append(d.AppFlows, flow)
		return true
	}
	d.AppFlows[idx] = flow
	return false
}

func (d *document) remove(id api.FlowID) error {
	idx := d.find(id)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	d.AppFlows = slices.Delete(d.AppFlows, idx, idx+1)
	return nil
}

func checkFlow(flow *api.Flow) error {
	if flow == nil || flow.ID == "" {
		return ErrInvalidFlow
	}
	return nil
}
