// Package folder defines the storage-side contract the provisioning core
// depends on. Implementations live in infrastructure; the retry and
// existence-check semantics are owned here.
package folder

import "context"

// Existence is the outcome of a folder existence check.
type Existence int

const (
	// ExistenceUnknown means the storage service answered with something
	// other than a definitive yes or no. Callers must not proceed with a
	// copy when the state is unknown.
	ExistenceUnknown Existence = iota
	// ExistenceAbsent means the folder does not exist.
	ExistenceAbsent
	// ExistenceExists means the folder exists.
	ExistenceExists
)

// String returns a log-friendly name for the existence state.
func (e Existence) String() string {
	switch e {
	case ExistenceExists:
		return "exists"
	case ExistenceAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Repository abstracts the storage service's folder operations.
//
// Exists returns ExistenceUnknown (without error) for any ambiguous
// response; a non-nil error indicates the check itself could not be made.
//
// Copy duplicates a template folder into place. Transient timeouts are
// retried internally up to the implementation's attempt bound; HTTP errors
// fail immediately.
//
// Move renames a folder in place; only the destination name changes.
type Repository interface {
	Exists(ctx context.Context, path string) (Existence, error)
	Copy(ctx context.Context, sourcePath, destinationPath string) error
	Move(ctx context.Context, path, destinationName string) error
}
