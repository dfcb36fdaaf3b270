// Package documents analyzes uploaded files held in the gateway store and
// writes the derived summary back onto the document record.
package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

// Store is the slice of the persistence layer this provider needs.
type Store interface {
	GetDocument(ctx context.Context, id string) (*store.Document, error)
	DownloadContent(ctx context.Context, path string) ([]byte, error)
	SetDocumentAnalysis(ctx context.Context, id, summary string) error
	CountDocuments(ctx context.Context) (int, error)
}

// Provider is the documents capability.
type Provider struct {
	store Store
}

// New creates the documents provider.
func New(s Store) *Provider {
	return &Provider{store: s}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderDocuments }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{Action: "status", Mode: gateway.ProbeExpectSuccess}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "analyzeDocument",
			Description: "Derive and persist a summary for an uploaded document",
			Required:    []string{"documentId"},
			Handler:     p.analyzeDocument,
		},
		{
			Name:        "status",
			Description: "Report document store health and record count",
			Handler:     p.status,
		},
	}
}

func (p *Provider) analyzeDocument(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	id := gateway.StringField(payload, "documentId", "")

	doc, err := p.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := p.store.DownloadContent(ctx, doc.FilePath)
	if err != nil {
		return nil, err
	}

	summary := summarize(doc, content)
	if err := p.store.SetDocumentAnalysis(ctx, doc.ID, summary); err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId":    agentID,
		"documentId": doc.ID,
		"fileName":   doc.FileName,
		"mimeType":   doc.MimeType,
		"summary":    summary,
	}, nil
}

func (p *Provider) status(ctx context.Context, agentID string, _ map[string]any) (map[string]any, error) {
	count, err := p.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"agentId":   agentID,
		"documents": count,
		"status":    "ok",
	}, nil
}

var wordProcessorTypes = map[string]bool{
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.oasis.opendocument.text":                                 true,
}

// summarize derives a human-readable summary keyed by MIME class.
func summarize(doc *store.Document, content []byte) string {
	switch {
	case doc.MimeType == "text/plain":
		text := string(content)
		return fmt.Sprintf("Text document: %d words, %d characters",
			len(strings.Fields(text)), len(text))
	case strings.HasPrefix(doc.MimeType, "image/"):
		return fmt.Sprintf("Image file: %s (%d KB)", doc.FileName, doc.FileSize/1024)
	case doc.MimeType == "application/pdf":
		return fmt.Sprintf("PDF document: %s (%d KB)", doc.FileName, doc.FileSize/1024)
	case wordProcessorTypes[doc.MimeType]:
		return fmt.Sprintf("Word document: %s (%d KB)", doc.FileName, doc.FileSize/1024)
	default:
		return fmt.Sprintf("File: %s (%s, %d KB)", doc.FileName, doc.MimeType, doc.FileSize/1024)
	}
}
