package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ssargent/freyjadb/pkg/bptree"
)

// KVStore is the main key-value store interface. Where the original
// backed every Get/Put/Delete with a bitcask-style append log plus an
// in-memory hash index, it now backs them with the disk-resident
// B+Tree engine's string-value overlay: an ordered tree keyed by the
// real key, pointing at offsets into an append-only value heap. The
// public surface is unchanged so pkg/api and pkg/query need no
// changes of their own.
type KVStore struct {
	config    KVStoreConfig
	strings   *StringStore
	dataFile  string
	treeFile  string
	mutex     sync.Mutex
	isOpen    bool
	startTime time.Time
}

// NewKVStore creates a new key-value store instance.
func NewKVStore(config KVStoreConfig) (*KVStore, error) {
	if config.NodeSize == 0 {
		config.NodeSize = bptree.DefaultNodeSize
	}
	if config.KeyLen == 0 {
		config.KeyLen = 256
	}

	store := &KVStore{
		config:   config,
		dataFile: filepath.Join(config.DataDir, "values.heap"),
		treeFile: filepath.Join(config.DataDir, "index.btree"),
		isOpen:   false,
	}

	return store, nil
}

// Open initializes the store, creating the tree and value heap files
// on first use or opening them as they stand otherwise.
func (kv *KVStore) Open() (*RecoveryResult, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if kv.isOpen {
		return &RecoveryResult{IndexRebuilt: false}, nil
	}

	startTime := time.Now()

	tree, treeExisted, err := openOrCreateTree(kv.treeFile, kv.config.NodeSize, kv.config.KeyLen, kv.config.CacheSize)
	if err != nil {
		return nil, err
	}

	heap, err := OpenValueHeap(kv.dataFile)
	if err != nil {
		tree.Close()
		return nil, err
	}

	kv.strings = NewStringStore(tree, heap)
	kv.isOpen = true
	kv.startTime = startTime

	return &RecoveryResult{
		IndexRebuilt: !treeExisted,
		RecoveryTime: time.Since(startTime).Nanoseconds(),
	}, nil
}

func openOrCreateTree(path string, nodesize, keylen, cacheSize int) (*bptree.Tree, bool, error) {
	tree, err := bptree.Open(path)
	existed := true
	if err != nil {
		tree, err = bptree.Create(path, nodesize, keylen)
		if err != nil {
			return nil, false, err
		}
		existed = false
	}
	if cacheSize > 0 {
		tree.SetCacheCapacity(cacheSize)
	}
	return tree, existed, nil
}

// Get retrieves a value for a key.
func (kv *KVStore) Get(key []byte) ([]byte, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()
	return kv.getInternal(key)
}

func (kv *KVStore) getInternal(key []byte) ([]byte, error) {
	if !kv.isOpen {
		return nil, &KVError{"store is not open"}
	}
	value, err := kv.strings.Get(key)
	if err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

// Put stores a key-value pair.
func (kv *KVStore) Put(key, value []byte) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()
	return kv.putInternal(key, value)
}

func (kv *KVStore) putInternal(key, value []byte) error {
	if !kv.isOpen {
		return &KVError{"store is not open"}
	}
	if len(key) == 0 {
		return ErrInvalidKey
	}
	if kv.config.MaxRecordSize > 0 && len(key)+len(value) > kv.config.MaxRecordSize {
		return ErrRecordSizeExceeded
	}
	if err := kv.strings.Put(key, value); err != nil {
		if errors.Is(err, bptree.ErrKeyTooLong) {
			return ErrInvalidKey
		}
		return err
	}
	return nil
}

// Delete removes a key-value pair.
func (kv *KVStore) Delete(key []byte) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()
	return kv.deleteInternal(key)
}

func (kv *KVStore) deleteInternal(key []byte) error {
	if !kv.isOpen {
		return &KVError{"store is not open"}
	}
	if len(key) == 0 {
		return ErrInvalidKey
	}
	if err := kv.strings.Delete(key); err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return err
	}
	return nil
}

// Close shuts down the store, flushing the tree's node cache and
// header before releasing file handles.
func (kv *KVStore) Close() error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil
	}
	kv.isOpen = false
	return kv.strings.Close()
}

// StoreStats holds statistics about the store.
type StoreStats struct {
	Keys     int
	DataSize int64
}

// Stats returns store statistics.
func (kv *KVStore) Stats() *StoreStats {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return &StoreStats{}
	}

	return &StoreStats{
		Keys:     int(kv.strings.Len()),
		DataSize: 0,
	}
}

// Explain gathers diagnostic information about the store.
func (kv *KVStore) Explain(ctx context.Context, opts ExplainOptions) (*ExplainResult, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil, &KVError{"store is not open"}
	}

	res := &ExplainResult{}
	keys := int(kv.strings.Len())
	res.Global.TotalKeys = keys
	res.Global.ActiveKeys = keys
	res.Global.Uptime = time.Since(kv.startTime)

	res.Segments = []Segment{
		{ID: "btree", Keys: keys, DeadPct: 0.0},
	}
	res.Partitions = map[string]PKStats{}

	if opts.WithSamples > 0 {
		res.Diagnostics.Samples = []Sample{}
	}
	if opts.PK != "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("partition filtering not implemented for PK: %s", opts.PK))
	}

	return res, nil
}

// KeyValuePair represents a key-value pair for scanning operations.
type KeyValuePair struct {
	Key   []byte
	Value []byte
}

// ListKeys returns all keys that match the given prefix, relying on
// the tree's lexicographic ordering: every key sharing a prefix sorts
// contiguously, so a forward walk from prefix can stop at the first
// key that no longer matches.
func (kv *KVStore) ListKeys(prefix []byte) ([]string, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()
	return kv.listKeysInternal(prefix)
}

func (kv *KVStore) listKeysInternal(prefix []byte) ([]string, error) {
	if !kv.isOpen {
		return nil, &KVError{"store is not open"}
	}

	var keys []string
	w, err := kv.strings.Walk(prefix, nil)
	if err != nil {
		return nil, err
	}
	ok, err := w.First()
	if err != nil {
		return nil, err
	}
	for ok {
		key := w.CurrentKey()
		if !strings.HasPrefix(string(key), string(prefix)) {
			break
		}
		keys = append(keys, string(key))
		ok, err = w.Next()
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// ScanPrefix returns a channel of key-value pairs that match the prefix.
func (kv *KVStore) ScanPrefix(prefix []byte) (<-chan KeyValuePair, error) {
	kv.mutex.Lock()
	if !kv.isOpen {
		kv.mutex.Unlock()
		return nil, &KVError{"store is not open"}
	}
	strStore := kv.strings
	kv.mutex.Unlock()

	ch := make(chan KeyValuePair, 100)
	go func() {
		defer close(ch)

		w, err := strStore.Walk(prefix, nil)
		if err != nil {
			return
		}
		ok, err := w.First()
		if err != nil {
			return
		}
		for ok {
			key := append([]byte(nil), w.CurrentKey()...)
			if !strings.HasPrefix(string(key), string(prefix)) {
				return
			}
			value, err := strStore.ValueAt(w.CurrentValue())
			if err == nil {
				select {
				case ch <- KeyValuePair{Key: key, Value: value}:
				case <-ch:
					return
				}
			}
			ok, err = w.Next()
			if err != nil {
				return
			}
		}
	}()

	return ch, nil
}

// PutRelationship creates a relationship between two entities.
func (kv *KVStore) PutRelationship(fromKey, toKey, relation string) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return &KVError{"store is not open"}
	}

	if err := kv.validateRelationshipKeys(fromKey, toKey); err != nil {
		return err
	}

	relationship := &Relationship{
		FromKey:   fromKey,
		ToKey:     toKey,
		Relation:  relation,
		CreatedAt: time.Now(),
	}

	forwardKey := makeRelationshipKey("forward", fromKey, relation, toKey)
	forwardData, err := json.Marshal(relationship)
	if err != nil {
		return fmt.Errorf("failed to marshal relationship: %w", err)
	}
	if err := kv.putInternal([]byte(forwardKey), forwardData); err != nil {
		return fmt.Errorf("failed to store forward relationship: %w", err)
	}

	reverseKey := makeRelationshipKey("reverse", toKey, relation, fromKey)
	reverseData, err := json.Marshal(relationship)
	if err != nil {
		return fmt.Errorf("failed to marshal reverse relationship: %w", err)
	}
	if err := kv.putInternal([]byte(reverseKey), reverseData); err != nil {
		return fmt.Errorf("failed to store reverse relationship: %w", err)
	}

	return nil
}

// DeleteRelationship removes a relationship between two entities.
func (kv *KVStore) DeleteRelationship(fromKey, toKey, relation string) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return &KVError{"store is not open"}
	}

	forwardKey := makeRelationshipKey("forward", fromKey, relation, toKey)
	if err := kv.deleteInternal([]byte(forwardKey)); err != nil && err != ErrKeyNotFound {
		return fmt.Errorf("failed to delete forward relationship: %w", err)
	}

	reverseKey := makeRelationshipKey("reverse", toKey, relation, fromKey)
	if err := kv.deleteInternal([]byte(reverseKey)); err != nil && err != ErrKeyNotFound {
		return fmt.Errorf("failed to delete reverse relationship: %w", err)
	}

	return nil
}

// GetRelationships returns all relationships for a given key.
func (kv *KVStore) GetRelationships(query RelationshipQuery) ([]RelationshipResult, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil, &KVError{"store is not open"}
	}

	var results []RelationshipResult
	limit := query.Limit
	if limit == 0 {
		limit = 100
	}

	if query.Direction == "outgoing" || query.Direction == "both" {
		safeKey := strings.ReplaceAll(query.Key, ":", "|")
		prefix := fmt.Sprintf("relationship:forward:%s", safeKey)
		if query.Relation != "" {
			prefix += fmt.Sprintf(":%s", query.Relation)
		}

		keys, err := kv.listKeysInternal([]byte(prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to list outgoing relationships: %w", err)
		}

		for _, key := range keys {
			if len(results) >= limit {
				break
			}
			data, err := kv.getInternal([]byte(key))
			if err != nil {
				continue
			}
			var rel Relationship
			if err := json.Unmarshal(data, &rel); err != nil {
				continue
			}
			results = append(results, RelationshipResult{
				Relationship: &rel,
				OtherKey:     rel.ToKey,
				Direction:    "outgoing",
			})
		}
	}

	if query.Direction == "incoming" || query.Direction == "both" {
		safeKey := strings.ReplaceAll(query.Key, ":", "|")
		prefix := fmt.Sprintf("relationship:reverse:%s", safeKey)
		if query.Relation != "" {
			prefix += fmt.Sprintf(":%s", query.Relation)
		}

		keys, err := kv.listKeysInternal([]byte(prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to list incoming relationships: %w", err)
		}

		for _, key := range keys {
			if len(results) >= limit {
				break
			}
			data, err := kv.getInternal([]byte(key))
			if err != nil {
				continue
			}
			var rel Relationship
			if err := json.Unmarshal(data, &rel); err != nil {
				continue
			}
			results = append(results, RelationshipResult{
				Relationship: &rel,
				OtherKey:     rel.FromKey,
				Direction:    "incoming",
			})
		}
	}

	return results, nil
}
