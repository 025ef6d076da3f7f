package bptree

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectWalk(t *testing.T, w *Walker) []string {
	t.Helper()
	var seen []string
	ok, err := w.First()
	require.NoError(t, err)
	for ok {
		seen = append(seen, string(w.CurrentKey()))
		ok, err = w.Next()
		require.NoError(t, err)
	}
	return seen
}

// S4 — walker empty range. Tree with keys {"A","B","C"}: a
// lower-inclusive/upper-exclusive walker over the same bound yields
// nothing, the same bound with an inclusive upper yields exactly that
// key, and a bound that falls strictly between live keys also yields
// nothing.
func TestScenarioS4WalkerEmptyRange(t *testing.T) {
	tree := newTestTree(t, 4, 8)
	require.NoError(t, tree.Put([]byte("A"), 1))
	require.NoError(t, tree.Put([]byte("B"), 2))
	require.NoError(t, tree.Put([]byte("C"), 3))

	w, err := NewWalker(tree, []byte("A"), true, []byte("A"), false)
	require.NoError(t, err)
	require.Empty(t, collectWalk(t, w))

	w, err = NewWalker(tree, []byte("A"), true, []byte("A"), true)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, collectWalk(t, w))

	w, err = NewWalker(tree, []byte("AA"), true, []byte("AA"), false)
	require.NoError(t, err)
	require.Empty(t, collectWalk(t, w))
}

func TestWalkerFullScanVisitsAllKeysAscending(t *testing.T) {
	tree := newTestTree(t, 4, 8)
	for i := 0; i < 30; i++ {
		require.NoError(t, tree.Put([]byte(fmt.Sprintf("k%02d", i)), int64(i)))
	}

	w, err := NewWalker(tree, nil, true, nil, false)
	require.NoError(t, err)
	seen := collectWalk(t, w)
	require.Len(t, seen, 30)
	require.True(t, sortedAscending(seen))
	require.Equal(t, "k00", seen[0])
	require.Equal(t, "k29", seen[len(seen)-1])
}

// A forward range walk over [lower, upper) must visit keys in sorted
// order and respect both bounds.
func TestWalkerBoundedRangeHalfOpen(t *testing.T) {
	tree := newTestTree(t, 4, 8)
	for i := 0; i < 30; i++ {
		require.NoError(t, tree.Put([]byte(fmt.Sprintf("k%02d", i)), int64(i)))
	}

	w, err := NewWalker(tree, []byte("k10"), true, []byte("k20"), false)
	require.NoError(t, err)
	seen := collectWalk(t, w)

	require.Len(t, seen, 10)
	for i, k := range seen {
		require.Equal(t, fmt.Sprintf("k%02d", 10+i), k)
	}
}

// Toggling includeLower/includeUpper independently on an otherwise
// identical bound shifts the emitted set by exactly the boundary key
// on that side.
func TestWalkerIncludeFlagsShiftBoundary(t *testing.T) {
	tree := newTestTree(t, 4, 8)
	for i := 0; i < 5; i++ {
		require.NoError(t, tree.Put([]byte(fmt.Sprintf("k%02d", i)), int64(i)))
	}

	w, err := NewWalker(tree, []byte("k01"), false, []byte("k03"), false)
	require.NoError(t, err)
	require.Equal(t, []string{"k02"}, collectWalk(t, w))

	w, err = NewWalker(tree, []byte("k01"), true, []byte("k03"), false)
	require.NoError(t, err)
	require.Equal(t, []string{"k01", "k02"}, collectWalk(t, w))

	w, err = NewWalker(tree, []byte("k01"), true, []byte("k03"), true)
	require.NoError(t, err)
	require.Equal(t, []string{"k01", "k02", "k03"}, collectWalk(t, w))
}

func TestWalkerEmptyTreeYieldsNothing(t *testing.T) {
	tree := newTestTree(t, 4, 8)
	w, err := NewWalker(tree, nil, true, nil, false)
	require.NoError(t, err)
	require.Empty(t, collectWalk(t, w))
}

func TestWalkerReopenPositionsCorrectly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walker-reopen.dat")
	tree, err := Create(path, 4, 8)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Put([]byte(fmt.Sprintf("k%02d", i)), int64(i)))
	}
	require.NoError(t, tree.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	w, err := NewWalker(reopened, []byte("k05"), true, nil, false)
	require.NoError(t, err)
	seen := collectWalk(t, w)
	require.Len(t, seen, 15)
	require.Equal(t, "k05", seen[0])
}
