package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/freyjadb/pkg/bptree"
)

func newTestBucketStore(t *testing.T, dir, name string) *BucketStore {
	t.Helper()
	tree, err := bptree.Create(filepath.Join(dir, name+".btree"), 32, 8)
	require.NoError(t, err)
	heap, err := OpenValueHeap(filepath.Join(dir, name+".heap"))
	require.NoError(t, err)
	b := NewBucketStore(tree, heap)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBucketStorePutGet(t *testing.T) {
	b := newTestBucketStore(t, t.TempDir(), "b1")

	require.NoError(t, b.Put([]byte("alpha"), []byte("one")))
	require.NoError(t, b.Put([]byte("beta"), []byte("two")))

	v, ok, err := b.Get([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), v)

	_, ok, err = b.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBucketStoreOverwrite(t *testing.T) {
	b := newTestBucketStore(t, t.TempDir(), "b2")

	require.NoError(t, b.Put([]byte("k"), []byte("v1")))
	require.NoError(t, b.Put([]byte("k"), []byte("v2")))

	v, ok, err := b.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestBucketStoreDeleteEmptiesBucket(t *testing.T) {
	b := newTestBucketStore(t, t.TempDir(), "b3")

	require.NoError(t, b.Put([]byte("only"), []byte("v")))
	require.NoError(t, b.Delete([]byte("only")))

	_, ok, err := b.Get([]byte("only"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBucketStoreManyKeysRoundTrip(t *testing.T) {
	b := newTestBucketStore(t, t.TempDir(), "b4")

	keys := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"}
	for _, k := range keys {
		require.NoError(t, b.Put([]byte(k), []byte("v-"+k)))
	}

	for _, k := range keys {
		v, ok, err := b.Get([]byte(k))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("v-"+k), v)
	}

	got, err := b.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, keys, got)
}

func TestBucketStoreKeysWithPrefix(t *testing.T) {
	b := newTestBucketStore(t, t.TempDir(), "b5")

	require.NoError(t, b.Put([]byte("user:1"), []byte("a")))
	require.NoError(t, b.Put([]byte("user:2"), []byte("b")))
	require.NoError(t, b.Put([]byte("order:1"), []byte("c")))

	got, err := b.KeysWithPrefix("user:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user:1", "user:2"}, got)
}

func TestBucketStoreCopyInto(t *testing.T) {
	dir := t.TempDir()
	src := newTestBucketStore(t, dir, "src")
	dst := newTestBucketStore(t, dir, "dst")

	require.NoError(t, src.Put([]byte("a"), []byte("1")))
	require.NoError(t, src.Put([]byte("b"), []byte("2")))

	require.NoError(t, src.CopyInto(dst))

	v, ok, err := dst.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	v, ok, err = dst.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
}
