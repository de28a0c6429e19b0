// Package api exposes a record store over HTTP.
package api

import "github.com/arkivdb/arkiv/pkg/record"

// RecordService is the store surface the HTTP layer needs. Both a
// record store and an engine connection satisfy it.
type RecordService interface {
	Insert(name string, data []byte, meta record.Metadata) (*record.Record, error)
	Get(name string) (*record.Record, error)
	Update(name string, data []byte, meta record.Metadata) (*record.Record, error)
	Delete(name string) (bool, error)
	List() ([]string, error)
	Search(substring string) ([]string, error)
	Compact() error
	Backup(dst string) error
	Size() (int64, error)
	ValidateSize() error
}
