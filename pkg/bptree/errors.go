package bptree

// TreeError represents a B+Tree engine error, following the same
// named-struct-implementing-error pattern used throughout pkg/store.
type TreeError struct {
	Message string
}

func (e *TreeError) Error() string {
	return e.Message
}

// Sentinel errors a caller can compare against with errors.Is.
var (
	// ErrKeyNotFound is returned by Get/Delete when the key is absent.
	ErrKeyNotFound = &TreeError{"bptree: key not found"}
	// ErrKeyTooLong is returned when a key exceeds the tree's keylen.
	ErrKeyTooLong = &TreeError{"bptree: key exceeds configured keylen"}
	// ErrInvalidValue is returned when a payload cannot be stored as-is
	// (e.g. a fixed-width tree value of the wrong width).
	ErrInvalidValue = &TreeError{"bptree: invalid value"}
	// ErrNotOpen is returned by any operation on a tree that has not
	// been opened or has already been closed.
	ErrNotOpen = &TreeError{"bptree: tree is not open"}
	// ErrReadOnly is returned by mutating operations on a tree opened
	// with OpenReadOnly.
	ErrReadOnly = &TreeError{"bptree: tree is read-only"}
	// ErrCorruption is returned when an on-disk record fails to decode
	// or fails a structural sanity check.
	ErrCorruption = &TreeError{"bptree: corruption detected"}
	// errNoRoom is internal: it signals the caller that this node
	// could not accept one more entry, not that the tree is full. It
	// never escapes the package; Tree.set/Tree.remove handle it by
	// splitting or redistributing.
	errNoRoom = &TreeError{"bptree: node has no room"}
)
