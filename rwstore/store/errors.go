package store

import "errors"

var (
	// ErrContentTooLarge is returned when content exceeds the configured MaxContentBytes.
	ErrContentTooLarge = errors.New("content exceeds size limit")
	// ErrDuplicateKey is returned when Create is called twice for the same key.
	ErrDuplicateKey = errors.New("key already exists")
	// ErrInvalidHandle is returned when Close receives a nil, foreign, released
	// or otherwise inconsistent handle.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrInvalidMode is returned when a mode cannot be parsed or cannot be used to open a record.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrNotWritable is returned when Write is called on a handle opened as Readable.
	ErrNotWritable = errors.New("handle is not writable")
	// ErrOpenCanceled is returned when an admission wait ends because its context
	// was canceled or the open timeout elapsed.
	ErrOpenCanceled = errors.New("open canceled before admission")
	// ErrOptionsConflict is returned when a shared store is reopened with different options.
	ErrOptionsConflict = errors.New("store already opened with different options")
	// ErrOptionsInvalid is returned when store options cannot be parsed or validated.
	ErrOptionsInvalid = errors.New("invalid store options")
)
