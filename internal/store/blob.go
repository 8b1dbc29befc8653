package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStore keeps the flow document as a single JSON object in a bucket,
// supporting local files, S3, GCS, Azure Blob Storage, and memory
type BlobStore struct {
	bucket *blob.Bucket
	key    string
	mu     sync.Mutex
}

const blobObjectName = "app-flows.json"

var (
	ErrBucketInaccessible = errors.New("bucket is not accessible")

	_ Store = (*BlobStore)(nil)
)

// NewBlobStore opens the configured bucket URL
func NewBlobStore(ctx context.Context, cfg config.BlobConfig) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	return NewBlobStoreWithBucket(bucket, cfg.Prefix), nil
}

// NewBlobStoreWithBucket wraps an already opened bucket. The store takes
// ownership of the bucket and closes it on Close
func NewBlobStoreWithBucket(bucket *blob.Bucket, prefix string) *BlobStore {
	return &BlobStore{
		bucket: bucket,
		key:    blobKey(prefix),
	}
}

func (s *BlobStore) Get(ctx context.Context, id api.FlowID) (*api.Flow, error) {
	doc, err := s.load(ctx)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc.get(id)
}

func (s *BlobStore) List(ctx context.Context) ([]*api.Flow, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.AppFlows, nil
}

func (s *BlobStore) Put(ctx context.Context, flow *api.Flow) (bool, error) {
	if err := checkFlow(flow); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if errors.Is(err, ErrDocumentNotFound) {
		doc = &document{}
	} else if err != nil {
		return false, err
	}

	created := doc.put(flow)
	return created, s.save(ctx, doc)
}

func (s *BlobStore) Delete(ctx context.Context, id api.FlowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := doc.remove(id); err != nil {
		return err
	}
	return s.save(ctx, doc)
}

func (s *BlobStore) Ping(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBucketInaccessible
	}
	return nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) load(ctx context.Context) (*document, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return decodeDocument(data)
}

func (s *BlobStore) save(ctx context.Context, doc *document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, s.key, data, &blob.WriterOptions{
		ContentType: "application/json",
	})
}

func blobKey(prefix string) string {
	if prefix == "" {
		return blobObjectName
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + blobObjectName
}
