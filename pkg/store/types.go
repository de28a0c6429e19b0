package store

import (
	"fmt"
	"log/slog"
)

// Errors
var (
	ErrRecordExists   = &StoreError{Message: "record already exists"}
	ErrRecordNotFound = &StoreError{Message: "record not found"}
	ErrInvalidStore   = &StoreError{Message: "invalid store file"}
)

// StoreError represents a record store error, optionally wrapping the
// lower-level cause.
type StoreError struct {
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Cause }

// SizeLimitError reports that the container exceeds the configured
// maximum size. The check is advisory: the mutation that caused the
// overflow has already been committed.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("store size %d exceeds size limit of %d bytes", e.Size, e.Limit)
}

// Logger is the observability collaborator injected into the store.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// NewSlogLogger adapts a slog.Logger to the store Logger interface.
func NewSlogLogger(l *slog.Logger) Logger { return slogLogger{l: l} }
