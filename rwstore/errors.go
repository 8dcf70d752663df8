package rwstore

import (
	"errors"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

var _ error = (*Error)(nil)

// ErrorName represents the name of an error.
type ErrorName string

const (
	// ContentTooLargeError is emitted when content exceeds the configured maxContentSize.
	ContentTooLargeError ErrorName = "ContentTooLargeError"

	// DuplicateKeyError is emitted when create() is called for an existing key.
	DuplicateKeyError ErrorName = "DuplicateKeyError"

	// InvalidHandleError is emitted when close() receives something that is not a live handle.
	InvalidHandleError ErrorName = "InvalidHandleError"

	// InvalidKeyError is emitted when create() or open() receives an undefined or null key.
	InvalidKeyError ErrorName = "InvalidKeyError"

	// InvalidModeError is emitted when open() receives an unknown or non-admissible mode.
	InvalidModeError ErrorName = "InvalidModeError"

	// NotFoundError is emitted when open() targets a key that does not exist.
	NotFoundError ErrorName = "NotFoundError"

	// NotWritableError is emitted when write() is called on a readable handle.
	NotWritableError ErrorName = "NotWritableError"

	// OpenTimeoutError is emitted when open() gives up waiting for admission.
	OpenTimeoutError ErrorName = "OpenTimeoutError"

	// OptionsConflictError is emitted when openStore() is called with options that
	// differ from the ones the shared store was created with.
	OptionsConflictError ErrorName = "OptionsConflictError"

	// OptionsError is emitted when openStore() options cannot be parsed or validated.
	OptionsError ErrorName = "OptionsError"

	// StoreNotOpenError is emitted when the store is used before openStore().
	StoreNotOpenError ErrorName = "StoreNotOpenError"
)

// Error represents a custom error emitted by the rwstore module.
type Error struct {
	// Name contains one of the strings associated with an error name.
	Name ErrorName `json:"name"`

	// Message represents message or description associated with the given error name.
	Message string `json:"message"`
}

// NewError returns a new Error instance.
func NewError(name ErrorName, message string) *Error {
	return &Error{
		Name:    name,
		Message: message,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Name) + ": " + e.Message
}

// classifyError downgrades internal Go errors to structured rwstore errors for JS.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var rwErr *Error
	if errors.As(err, &rwErr) {
		return rwErr
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewError(NotFoundError, err.Error())
	case errors.Is(err, store.ErrDuplicateKey):
		return NewError(DuplicateKeyError, err.Error())
	case errors.Is(err, store.ErrInvalidHandle):
		return NewError(InvalidHandleError, err.Error())
	case errors.Is(err, store.ErrNotWritable):
		return NewError(NotWritableError, err.Error())
	case errors.Is(err, store.ErrInvalidMode):
		return NewError(InvalidModeError, err.Error())
	case errors.Is(err, store.ErrOpenCanceled):
		return NewError(OpenTimeoutError, err.Error())
	case errors.Is(err, store.ErrContentTooLarge):
		return NewError(ContentTooLargeError, err.Error())
	case errors.Is(err, store.ErrOptionsConflict):
		return NewError(OptionsConflictError, err.Error())
	case errors.Is(err, store.ErrOptionsInvalid):
		return NewError(OptionsError, err.Error())
	}

	return err
}
