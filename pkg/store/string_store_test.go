package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/freyjadb/pkg/bptree"
)

func newTestStringStore(t *testing.T) *StringStore {
	t.Helper()
	dir := t.TempDir()
	tree, err := bptree.Create(filepath.Join(dir, "index.btree"), 32, 64)
	require.NoError(t, err)
	heap, err := OpenValueHeap(filepath.Join(dir, "values.heap"))
	require.NoError(t, err)
	s := NewStringStore(tree, heap)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStringStorePutGet(t *testing.T) {
	s := newTestStringStore(t)

	require.NoError(t, s.Put([]byte("alpha"), []byte("one")))
	require.NoError(t, s.Put([]byte("beta"), []byte("two")))

	v, err := s.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	has, err := s.Has([]byte("beta"))
	require.NoError(t, err)
	assert.True(t, has)

	assert.EqualValues(t, 2, s.Len())
}

func TestStringStoreOverwriteKeepsLatestOffset(t *testing.T) {
	s := newTestStringStore(t)

	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	require.NoError(t, s.Put([]byte("k"), []byte("v2")))

	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
	assert.EqualValues(t, 1, s.Len())
}

func TestStringStoreDelete(t *testing.T) {
	s := newTestStringStore(t)

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	require.NoError(t, s.Delete([]byte("k")))

	has, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStringStoreWalkRange(t *testing.T) {
	s := newTestStringStore(t)

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Put([]byte(k), []byte(k+k)))
	}

	w, err := s.Walk([]byte("b"), []byte("d"))
	require.NoError(t, err)

	var got []string
	ok, err := w.First()
	require.NoError(t, err)
	for ok {
		val, err := s.ValueAt(w.CurrentValue())
		require.NoError(t, err)
		got = append(got, string(w.CurrentKey())+":"+string(val))
		ok, err = w.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"b:bb", "c:cc"}, got)
}
