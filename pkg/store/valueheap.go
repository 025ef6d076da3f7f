package store

import "fmt"

// ValueHeap is the append-only file region backing the string-value
// overlay: arbitrary-length values are appended as length-prefixed,
// CRC-checked records (see pkg/codec.Record) and referenced elsewhere
// by their byte offset. It reuses the same LogWriter/LogReader the
// original bitcask-style store used for its single data file — an
// append-only writer and a random-access reader are exactly what a
// value heap needs, the key field is simply left empty.
type ValueHeap struct {
	writer *LogWriter
	reader *LogReader
}

// OpenValueHeap opens (creating if necessary) the value heap file at path.
func OpenValueHeap(path string) (*ValueHeap, error) {
	writer, err := NewLogWriter(LogWriterConfig{FilePath: path, BufferSize: 4096})
	if err != nil {
		return nil, err
	}
	reader, err := NewLogReader(LogReaderConfig{FilePath: path})
	if err != nil {
		writer.Close()
		return nil, err
	}
	return &ValueHeap{writer: writer, reader: reader}, nil
}

// Append writes value to the end of the heap and returns its offset.
func (h *ValueHeap) Append(value []byte) (int64, error) {
	return h.writer.Put(nil, value)
}

// ReadAt returns the value stored at offset.
func (h *ValueHeap) ReadAt(offset int64) ([]byte, error) {
	record, err := h.reader.ReadAt(offset)
	if err != nil {
		return nil, fmt.Errorf("valueheap: read at offset %d: %w", offset, err)
	}
	return record.Value, nil
}

// Close flushes and closes both the writer and reader handles.
func (h *ValueHeap) Close() error {
	readErr := h.reader.Close()
	writeErr := h.writer.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}
