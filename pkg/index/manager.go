package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ssargent/freyjadb/pkg/bptree"
)

// indexKeyLen bounds a composite index key (serialized field value
// plus primary key); 256 bytes comfortably covers any primary key the
// teacher's KVStore accepts.
const indexKeyLen = 256

// SecondaryIndex manages a B+Tree-based index for a specific field.
// Where the original kept an in-memory BPlusTree keyed on
// field_value+primary_key and pointing at a KSUID, this is now backed
// by the disk-resident pkg/bptree.Tree: since the composite key
// already carries the primary key as its suffix, no separate value is
// needed, and range/prefix search is real (the teacher's Search and
// SearchRange TODOs are implemented via Walker instead of stubbed).
type SecondaryIndex struct {
	fieldName string
	tree      *bptree.Tree
	path      string
	mutex     sync.RWMutex
}

// NewSecondaryIndex creates a new secondary index for a field, backed
// by its own B+Tree file in a per-process temporary directory (see
// indexTempDir). order is used as the tree's
// nodesize (branching factor), matching the teacher's order parameter
// name even though the underlying engine is no longer the in-memory
// BPlusTree.
func NewSecondaryIndex(fieldName string, order int) *SecondaryIndex {
	idx, err := newSecondaryIndexAt(fieldName, indexTempDir(), order)
	if err != nil {
		// A fresh temp-backed tree creation failure here would be a
		// filesystem-level problem the original in-memory index never
		// had to consider; panicking matches NewSecondaryIndex's
		// original signature, which has no error return.
		panic(fmt.Sprintf("index: failed to create secondary index %q: %v", fieldName, err))
	}
	return idx
}

var (
	processIndexDir     string
	processIndexDirOnce sync.Once
)

// indexTempDir returns a directory unique to this process for
// indexes created without an explicit location (GetOrCreateIndex
// before any LoadAll). Scoping it per-process, rather than to a fixed
// path under os.TempDir, keeps successive runs from ever reopening
// another run's stale index files.
func indexTempDir() string {
	processIndexDirOnce.Do(func() {
		dir, err := os.MkdirTemp("", "freyjadb-indexes-")
		if err != nil {
			dir = filepath.Join(os.TempDir(), "freyjadb-indexes")
			os.MkdirAll(dir, 0o755)
		}
		processIndexDir = dir
	})
	return processIndexDir
}

func newSecondaryIndexAt(fieldName, dir string, order int) (*SecondaryIndex, error) {
	if order < 3 {
		order = 3
	}
	path := filepath.Join(dir, fmt.Sprintf("index_%s.btree", fieldName))
	tree, err := bptree.Open(path)
	if err != nil {
		tree, err = bptree.Create(path, order, indexKeyLen)
		if err != nil {
			return nil, err
		}
	}
	return &SecondaryIndex{fieldName: fieldName, tree: tree, path: path}, nil
}

// Insert adds a record to the secondary index. The index key is
// field_value+primary_key; since it is unique per primary key, no
// separate payload is needed, so the tree value is always 0.
func (idx *SecondaryIndex) Insert(fieldValue interface{}, primaryKey []byte) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	indexKey := idx.createIndexKey(fieldValue, primaryKey)
	return idx.tree.Put(indexKey, 0)
}

// Delete removes a record from the secondary index.
func (idx *SecondaryIndex) Delete(fieldValue interface{}, primaryKey []byte) bool {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	indexKey := idx.createIndexKey(fieldValue, primaryKey)
	return idx.tree.Delete(indexKey) == nil
}

// Search finds primary keys with an exact field value match, walking
// every composite key sharing the field's serialized prefix.
func (idx *SecondaryIndex) Search(fieldValue interface{}) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	prefix := idx.createFieldPrefix(fieldValue)
	return idx.scanPrefix(prefix)
}

// SearchRange finds primary keys whose field value falls within
// [startValue, endValue). A nil bound leaves that side open.
func (idx *SecondaryIndex) SearchRange(startValue, endValue interface{}) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var lower, upper []byte
	if startValue != nil {
		lower = idx.createFieldPrefix(startValue)
	}
	if endValue != nil {
		upper = idx.createFieldPrefix(endValue)
	}

	w, err := bptree.NewWalker(idx.tree, lower, true, upper, false)
	if err != nil {
		return nil, fmt.Errorf("range search failed: %w", err)
	}

	var keys [][]byte
	ok, err := w.First()
	if err != nil {
		return nil, err
	}
	for ok {
		keys = append(keys, primaryKeyFromIndexKey(w.CurrentKey()))
		ok, err = w.Next()
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (idx *SecondaryIndex) scanPrefix(prefix []byte) ([][]byte, error) {
	w, err := bptree.NewWalker(idx.tree, prefix, true, nil, false)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	var keys [][]byte
	ok, err := w.First()
	if err != nil {
		return nil, err
	}
	for ok {
		key := w.CurrentKey()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		keys = append(keys, primaryKeyFromIndexKey(key))
		ok, err = w.Next()
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Save is a no-op: the tree backing this index is already disk
// resident. Its dirty nodes reach disk when the tree's write-back node
// cache evicts them or when the tree is closed; Save itself flushes
// nothing.
func (idx *SecondaryIndex) Save(dir string) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return nil
}

// Load is a no-op for the same reason Save is: the tree is already
// open against its own file.
func (idx *SecondaryIndex) Load(dir string) error {
	return nil
}

// Close releases the index's underlying tree file handle.
func (idx *SecondaryIndex) Close() error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	return idx.tree.Close()
}

// createIndexKey creates a composite key: field_value + primary_key
func (idx *SecondaryIndex) createIndexKey(fieldValue interface{}, primaryKey []byte) []byte {
	var buf bytes.Buffer
	idx.serializeValue(&buf, fieldValue)
	buf.Write(primaryKey)
	return buf.Bytes()
}

// createFieldPrefix creates a key prefix for field value matching
func (idx *SecondaryIndex) createFieldPrefix(fieldValue interface{}) []byte {
	var buf bytes.Buffer
	idx.serializeValue(&buf, fieldValue)
	return buf.Bytes()
}

// primaryKeyFromIndexKey strips the serialized field value back off a
// composite index key. Numeric field values are fixed-width (a type
// marker byte plus an 8-byte big-endian int64/float64), so the
// primary key starts at a known offset; string field values are
// null-terminated, so the primary key starts just past the first
// embedded zero byte after the type marker.
func primaryKeyFromIndexKey(indexKey []byte) []byte {
	if len(indexKey) == 0 {
		return nil
	}
	switch indexKey[0] {
	case 0, 1:
		if len(indexKey) >= 9 {
			return append([]byte(nil), indexKey[9:]...)
		}
		return nil
	default:
		nul := bytes.IndexByte(indexKey[1:], 0)
		if nul < 0 {
			return nil
		}
		return append([]byte(nil), indexKey[1+nul+1:]...)
	}
}

// serializeValue serializes different value types for indexing
func (idx *SecondaryIndex) serializeValue(buf *bytes.Buffer, value interface{}) {
	switch v := value.(type) {
	case int:
		buf.WriteByte(0) // Type marker for int
		binary.Write(buf, binary.BigEndian, int64(v))
	case int64:
		buf.WriteByte(0)
		binary.Write(buf, binary.BigEndian, v)
	case float64:
		buf.WriteByte(1) // Type marker for float64
		binary.Write(buf, binary.BigEndian, v)
	case string:
		buf.WriteByte(2) // Type marker for string
		buf.WriteString(v)
		buf.WriteByte(0) // Null terminator
	default:
		// For unknown types, convert to string
		buf.WriteByte(2)
		buf.WriteString(fmt.Sprintf("%v", v))
		buf.WriteByte(0)
	}
}

// IndexManager manages multiple secondary indexes for a partition
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	order   int
}

// NewIndexManager creates a new index manager
func NewIndexManager(order int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// GetOrCreateIndex gets an existing index or creates a new one for a field
func (im *IndexManager) GetOrCreateIndex(fieldName string) *SecondaryIndex {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[fieldName]; exists {
		return idx
	}

	idx := NewSecondaryIndex(fieldName, im.order)
	im.indexes[fieldName] = idx
	return idx
}

// SaveAll saves all indexes to disk
func (im *IndexManager) SaveAll(dir string) error {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	for _, idx := range im.indexes {
		if err := idx.Save(dir); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reopens every secondary index tree file already present in
// dir, for the case where dir is a durable directory distinct from
// the process-local temp directory GetOrCreateIndex otherwise uses.
func (im *IndexManager) LoadAll(dir string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	pattern := filepath.Join(dir, "index_*.btree")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, file := range files {
		filename := filepath.Base(file)
		const prefix, suffix = "index_", ".btree"
		if len(filename) <= len(prefix)+len(suffix) {
			continue
		}
		fieldName := filename[len(prefix) : len(filename)-len(suffix)]

		idx, err := newSecondaryIndexAt(fieldName, dir, im.order)
		if err != nil {
			return fmt.Errorf("failed to load index for field %s: %w", fieldName, err)
		}
		im.indexes[fieldName] = idx
	}

	return nil
}
