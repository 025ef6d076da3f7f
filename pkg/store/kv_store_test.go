package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKVStore(t *testing.T) *KVStore {
	t.Helper()
	dir := t.TempDir()
	kv, err := NewKVStore(KVStoreConfig{
		DataDir:       dir,
		FsyncInterval: time.Second,
	})
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKVStore_BasicOperations(t *testing.T) {
	kv := newTestKVStore(t)

	require.NoError(t, kv.Put([]byte("hello"), []byte("world")))

	v, err := kv.Get([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), v)

	_, err = kv.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Delete([]byte("hello")))
	_, err = kv.Get([]byte("hello"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKVStore_PutRejectsEmptyKey(t *testing.T) {
	kv := newTestKVStore(t)
	err := kv.Put([]byte{}, []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKVStore_UpdateValue(t *testing.T) {
	kv := newTestKVStore(t)

	require.NoError(t, kv.Put([]byte("k"), []byte("v1")))
	require.NoError(t, kv.Put([]byte("k"), []byte("v2")))

	v, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestKVStore_MaxRecordSize(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewKVStore(KVStoreConfig{
		DataDir:       dir,
		MaxRecordSize: 8,
	})
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)
	defer kv.Close()

	err = kv.Put([]byte("longkeyname"), []byte("v"))
	assert.ErrorIs(t, err, ErrRecordSizeExceeded)
}

func TestKVStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	config := KVStoreConfig{DataDir: dir}

	kv, err := NewKVStore(config)
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)
	require.NoError(t, kv.Put([]byte("persisted"), []byte("value")))
	require.NoError(t, kv.Close())

	kv2, err := NewKVStore(config)
	require.NoError(t, err)
	res, err := kv2.Open()
	require.NoError(t, err)
	assert.False(t, res.IndexRebuilt)
	defer kv2.Close()

	v, err := kv2.Get([]byte("persisted"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestKVStore_OpenTwiceIsNoop(t *testing.T) {
	kv := newTestKVStore(t)
	res, err := kv.Open()
	require.NoError(t, err)
	assert.False(t, res.IndexRebuilt)
}

func TestKVStore_OperationsBeforeOpenFail(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)

	_, err = kv.Get([]byte("x"))
	assert.Error(t, err)
	err = kv.Put([]byte("x"), []byte("y"))
	assert.Error(t, err)
	err = kv.Delete([]byte("x"))
	assert.Error(t, err)
}

func TestKVStore_Stats(t *testing.T) {
	kv := newTestKVStore(t)

	require.NoError(t, kv.Put([]byte("a"), []byte("1")))
	require.NoError(t, kv.Put([]byte("b"), []byte("2")))

	stats := kv.Stats()
	assert.Equal(t, 2, stats.Keys)
}

func TestKVStore_Explain(t *testing.T) {
	kv := newTestKVStore(t)
	require.NoError(t, kv.Put([]byte("a"), []byte("1")))

	res, err := kv.Explain(context.Background(), ExplainOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Global.TotalKeys)
	assert.Len(t, res.Segments, 1)
}

func TestKVStore_ListKeysPrefix(t *testing.T) {
	kv := newTestKVStore(t)

	keys := []string{"user:1", "user:2", "user:3", "order:1"}
	for _, k := range keys {
		require.NoError(t, kv.Put([]byte(k), []byte("v")))
	}

	got, err := kv.ListKeys([]byte("user:"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user:1", "user:2", "user:3"}, got)
}

func TestKVStore_ScanPrefix(t *testing.T) {
	kv := newTestKVStore(t)

	require.NoError(t, kv.Put([]byte("item:1"), []byte("a")))
	require.NoError(t, kv.Put([]byte("item:2"), []byte("b")))
	require.NoError(t, kv.Put([]byte("other:1"), []byte("c")))

	ch, err := kv.ScanPrefix([]byte("item:"))
	require.NoError(t, err)

	seen := map[string]string{}
	for pair := range ch {
		seen[string(pair.Key)] = string(pair.Value)
	}
	assert.Equal(t, map[string]string{"item:1": "a", "item:2": "b"}, seen)
}

func TestKVStore_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)

	require.NoError(t, kv.Close())
	require.NoError(t, kv.Close())
}

func TestKVStore_DataDirIsReused(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)
	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
	require.NoError(t, kv.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
