package api

import "github.com/arkivdb/arkiv/pkg/record"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RecordPayload is the request body for insert and update. Data is
// base64 on the wire, per encoding/json []byte handling.
type RecordPayload struct {
	Data     []byte          `json:"data"`
	Metadata record.Metadata `json:"metadata,omitempty"`
}

// RecordResponse is the response body for a single record.
type RecordResponse struct {
	Name     string          `json:"name"`
	Data     []byte          `json:"data"`
	Metadata record.Metadata `json:"metadata"`
	Valid    bool            `json:"valid"`
}

// BackupRequest names the destination file for a backup.
type BackupRequest struct {
	Destination string `json:"destination"`
}

// StatsResponse reports container size and capacity state.
type StatsResponse struct {
	Records   int    `json:"records"`
	SizeBytes int64  `json:"size_bytes"`
	SizeOK    bool   `json:"size_ok"`
	SizeError string `json:"size_error,omitempty"`
}
