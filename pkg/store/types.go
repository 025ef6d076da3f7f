package store

import (
	"time"

	"github.com/ssargent/freyjadb/pkg/codec"
)

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// KVStoreConfig holds configuration for the key-value store
type KVStoreConfig struct {
	DataDir       string        // Directory for data files
	FsyncInterval time.Duration // Not read by KVStore; the value heap syncs after every append
	MaxRecordSize int           // Maximum size of a single record in bytes
	NodeSize      int           // B+Tree branching factor; 0 selects bptree.DefaultNodeSize
	KeyLen        int           // Maximum key length in bytes; 0 selects a 256-byte default
	CacheSize     int           // Node cache capacity; 0 selects bptree.DefaultCacheCapacity
}

// RecoveryResult holds statistics about crash recovery operations
type RecoveryResult struct {
	RecordsValidated int64 // Number of records successfully validated
	RecordsTruncated int64 // Number of corrupted records truncated
	FileSizeBefore   int64 // File size before recovery
	FileSizeAfter    int64 // File size after recovery
	IndexRebuilt     bool  // Whether index was rebuilt
	RecoveryTime     int64 // Time taken for recovery in nanoseconds
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *codec.Record
	Close() error
}

// Errors
var (
	ErrKeyNotFound        = &KVError{"key not found"}
	ErrInvalidKey         = &KVError{"invalid key"}
	ErrCorruption         = &KVError{"data corruption detected"}
	ErrRecordSizeExceeded = &KVError{"record size exceeds maximum allowed size"}
)

// KVError represents a key-value store error
type KVError struct {
	Message string
}

func (e *KVError) Error() string {
	return e.Message
}
