package store

import "time"

// Document is one uploaded file's metadata record. Content bytes live in the
// blob table, keyed by FilePath.
type Document struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	Summary    string    `json:"summary,omitempty"`
	Processed  bool      `json:"processed"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DispatchRecord is one row of the append-only dispatch audit log.
type DispatchRecord struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Provider   string    `json:"provider"`
	Action     string    `json:"action"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// DispatchFilter narrows audit-log queries.
type DispatchFilter struct {
	AgentID  string
	Provider string
	Success  *bool
	Limit    int
}
