package store

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/ssargent/freyjadb/pkg/bptree"
	"github.com/ssargent/freyjadb/pkg/codec"
)

// bucket is the dictionary stored at every bucket-tree leaf: every
// real key whose portable hash collided into the same fixed-width
// bucket key, the way dbm-style hashing has always resolved
// collisions, chained rather than probed.
type bucket map[string][]byte

// BucketStore is the dbm-style bucket hash overlay of spec §4.8: keys
// are hashed through codec.PortableHash into a fixed-width bucket
// key, and the bucket tree maps that bucket key to a heap offset
// holding a serialized bucket dictionary. It is a second, independent
// index over the same kind of string-keyed data StringStore handles,
// trading StringStore's ordered range scans for O(1)-ish point access
// and a much smaller tree (one entry per bucket, not per key).
type BucketStore struct {
	tree *bptree.Tree
	heap *ValueHeap
	mu   sync.Mutex
}

// NewBucketStore wires an already-open bucket tree and value heap
// into an overlay. The tree's keylen must be at least 4 bytes, since
// codec.EncodeBucketKey needs that much room for the hash.
func NewBucketStore(tree *bptree.Tree, heap *ValueHeap) *BucketStore {
	return &BucketStore{tree: tree, heap: heap}
}

func (b *BucketStore) bucketKey(key []byte) []byte {
	return codec.EncodeBucketKey(codec.PortableHash(key), b.tree.Keylen())
}

func (b *BucketStore) loadBucket(bucketKey []byte) (bucket, int64, bool, error) {
	offset, err := b.tree.Get(bucketKey)
	if err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			return bucket{}, 0, false, nil
		}
		return nil, 0, false, err
	}
	blob, err := b.heap.ReadAt(offset)
	if err != nil {
		return nil, 0, false, err
	}
	var bk bucket
	if err := json.Unmarshal(blob, &bk); err != nil {
		return nil, 0, false, err
	}
	return bk, offset, true, nil
}

func (b *BucketStore) storeBucket(bucketKey []byte, bk bucket) error {
	blob, err := json.Marshal(bk)
	if err != nil {
		return err
	}
	offset, err := b.heap.Append(blob)
	if err != nil {
		return err
	}
	return b.tree.Put(bucketKey, offset)
}

// Put adds or overwrites key's value in its bucket.
func (b *BucketStore) Put(key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, _, _, err := b.loadBucket(b.bucketKey(key))
	if err != nil {
		return err
	}
	if bk == nil {
		bk = bucket{}
	}
	bk[string(key)] = append([]byte(nil), value...)
	return b.storeBucket(b.bucketKey(key), bk)
}

// Get returns key's value, if present.
func (b *BucketStore) Get(key []byte) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, _, found, err := b.loadBucket(b.bucketKey(key))
	if err != nil || !found {
		return nil, false, err
	}
	v, ok := bk[string(key)]
	return v, ok, nil
}

// Delete removes key from its bucket. If the bucket becomes empty the
// bucket-tree entry itself is removed rather than left pointing at an
// empty dictionary.
func (b *BucketStore) Delete(key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bKey := b.bucketKey(key)
	bk, _, found, err := b.loadBucket(bKey)
	if err != nil || !found {
		return err
	}
	delete(bk, string(key))
	if len(bk) == 0 {
		return b.tree.Delete(bKey)
	}
	return b.storeBucket(bKey, bk)
}

// Keys returns every real key currently stored, by walking the entire
// bucket tree and flattening every bucket dictionary. This is O(total
// keys), unlike Get/Put; it exists for diagnostics and for
// CopyInto, not for hot-path lookups.
func (b *BucketStore) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var keys []string
	walker, err := bptree.NewWalker(b.tree, nil, true, nil, false)
	if err != nil {
		return nil, err
	}
	ok, err := walker.First()
	if err != nil {
		return nil, err
	}
	for ok {
		blob, err := b.heap.ReadAt(walker.CurrentValue())
		if err != nil {
			return nil, err
		}
		var bk bucket
		if err := json.Unmarshal(blob, &bk); err != nil {
			return nil, err
		}
		for k := range bk {
			keys = append(keys, k)
		}
		ok, err = walker.Next()
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// KeysWithPrefix filters Keys to those starting with prefix, matching
// the teacher's in-memory HashIndex.KeysWithPrefix behavior this type
// replaces now that the index lives on disk.
func (b *BucketStore) KeysWithPrefix(prefix string) ([]string, error) {
	all, err := b.Keys()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// CopyInto inserts every key in b into dst, matching the original
// dbm's non-compacting copy(..., "w") mode: unlike bptree.Recopy
// (which rebuilds a single tree from a leaf-chain walk), this walks
// one store's buckets and replays each key/value pair as an ordinary
// Put against an already-open destination.
func (b *BucketStore) CopyInto(dst *BucketStore) error {
	b.mu.Lock()
	walker, err := bptree.NewWalker(b.tree, nil, true, nil, false)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	ok, err := walker.First()
	if err != nil {
		b.mu.Unlock()
		return err
	}
	type kv struct{ key, value []byte }
	var all []kv
	for ok {
		blob, err := b.heap.ReadAt(walker.CurrentValue())
		if err != nil {
			b.mu.Unlock()
			return err
		}
		var bk bucket
		if err := json.Unmarshal(blob, &bk); err != nil {
			b.mu.Unlock()
			return err
		}
		for k, v := range bk {
			all = append(all, kv{key: []byte(k), value: v})
		}
		ok, err = walker.Next()
		if err != nil {
			b.mu.Unlock()
			return err
		}
	}
	b.mu.Unlock()

	for _, pair := range all {
		if err := dst.Put(pair.key, pair.value); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying tree and heap.
func (b *BucketStore) Close() error {
	treeErr := b.tree.Close()
	heapErr := b.heap.Close()
	if treeErr != nil {
		return treeErr
	}
	return heapErr
}
