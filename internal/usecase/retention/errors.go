package retention

import "errors"

var (
	// ErrCatalogUnavailable aborts the whole run.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
	// ErrRecordNotFound is a no-op outcome for single-item modes.
	ErrRecordNotFound = errors.New("catalog: record not found")
	// ErrTransactionFailed marks one item as failed; the run continues.
	ErrTransactionFailed = errors.New("catalog: transaction failed")
	// ErrFilesystemDelete marks one file as not removed; the run continues.
	ErrFilesystemDelete = errors.New("filesystem: delete failed")
	// ErrInvalidParams is returned before anything is read.
	ErrInvalidParams = errors.New("retention: invalid parameters")
)
