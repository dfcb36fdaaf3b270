package store

import (
	"context"
	"time"
)

// Store defines the persistence layer contract: document metadata, content
// blobs, the dispatch audit log, and encrypted secrets. All implementations
// must be safe for concurrent use.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, limit int) ([]*Document, error)
	SetDocumentAnalysis(ctx context.Context, id, summary string) error
	CountDocuments(ctx context.Context) (int, error)

	// Content blobs
	UploadContent(ctx context.Context, path string, data []byte) error
	DownloadContent(ctx context.Context, path string) ([]byte, error)

	// Dispatch audit log (append-only)
	AppendDispatch(ctx context.Context, rec *DispatchRecord) error
	ListDispatches(ctx context.Context, filter DispatchFilter) ([]*DispatchRecord, error)
	PruneDispatches(ctx context.Context, olderThan time.Time) (int64, error)

	// Secrets (values are encrypted by the vault before they arrive here)
	StoreSecret(ctx context.Context, key string, value []byte) error
	GetSecret(ctx context.Context, key string) ([]byte, error)
	DeleteSecret(ctx context.Context, key string) error
	ListSecrets(ctx context.Context) ([]string, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
