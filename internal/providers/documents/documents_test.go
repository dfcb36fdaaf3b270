package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

type fakeStore struct {
	docs      map[string]*store.Document
	contents  map[string][]byte
	summaries map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:      map[string]*store.Document{},
		contents:  map[string][]byte{},
		summaries: map[string]string{},
	}
}

func (f *fakeStore) GetDocument(_ context.Context, id string) (*store.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "document %q not found", id)
	}
	return doc, nil
}

func (f *fakeStore) DownloadContent(_ context.Context, path string) ([]byte, error) {
	data, ok := f.contents[path]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "content %q not found", path)
	}
	return data, nil
}

func (f *fakeStore) SetDocumentAnalysis(_ context.Context, id, summary string) error {
	f.summaries[id] = summary
	return nil
}

func (f *fakeStore) CountDocuments(context.Context) (int, error) {
	return len(f.docs), nil
}

func (f *fakeStore) add(doc *store.Document, content []byte) {
	f.docs[doc.ID] = doc
	f.contents[doc.FilePath] = content
}

func TestAnalyzePlainText(t *testing.T) {
	fs := newFakeStore()
	fs.add(&store.Document{
		ID:       "doc-1",
		FileName: "notes.txt",
		FilePath: "uploads/doc-1",
		MimeType: "text/plain",
	}, []byte("hello world"))

	p := New(fs)
	data, err := p.analyzeDocument(context.Background(), "agent-1", map[string]any{"documentId": "doc-1"})
	require.NoError(t, err)

	summary := data["summary"].(string)
	assert.Contains(t, summary, "2 words")
	assert.Contains(t, summary, "11 characters")
	assert.Equal(t, summary, fs.summaries["doc-1"])
	assert.Equal(t, "agent-1", data["agentId"])
	assert.Equal(t, "doc-1", data["documentId"])
}

func TestAnalyzeByMimeClass(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
		size     int64
		want     string
	}{
		{"image", "image/png", "chart.png", 2048, "Image file: chart.png (2 KB)"},
		{"pdf", "application/pdf", "syllabus.pdf", 2048, "PDF document: syllabus.pdf (2 KB)"},
		{
			"docx",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"lesson.docx", 4096,
			"Word document: lesson.docx (4 KB)",
		},
		{"generic", "application/zip", "bundle.zip", 1024, "File: bundle.zip (application/zip, 1 KB)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			fs.add(&store.Document{
				ID:       "doc-1",
				FileName: tt.fileName,
				FilePath: "uploads/doc-1",
				MimeType: tt.mime,
				FileSize: tt.size,
			}, []byte{0x1})

			p := New(fs)
			data, err := p.analyzeDocument(context.Background(), "agent-1", map[string]any{"documentId": "doc-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, data["summary"])
		})
	}
}

func TestAnalyzeUnknownDocument(t *testing.T) {
	p := New(newFakeStore())
	_, err := p.analyzeDocument(context.Background(), "agent-1", map[string]any{"documentId": "nope"})
	require.Error(t, err)
}

func TestStatusReportsCount(t *testing.T) {
	fs := newFakeStore()
	fs.add(&store.Document{ID: "a", FilePath: "p/a"}, nil)
	fs.add(&store.Document{ID: "b", FilePath: "p/b"}, nil)

	p := New(fs)
	data, err := p.status(context.Background(), "config-check", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, data["documents"])
	assert.Equal(t, "ok", data["status"])
}

func TestProbeUsesStatus(t *testing.T) {
	p := New(newFakeStore())
	spec := p.Probe()
	assert.Equal(t, "status", spec.Action)
}
