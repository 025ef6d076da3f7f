package bptree

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecopyPreservesAllEntries(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "src.dat")
	dstPath := filepath.Join(t.TempDir(), "dst.dat")

	src, err := Create(srcPath, 6, 12)
	require.NoError(t, err)
	defer src.Close()

	n := 300
	for i := 0; i < n; i++ {
		require.NoError(t, src.Put([]byte(fmt.Sprintf("key-%04d", i)), int64(i)))
	}
	// Delete every third key so the source tree carries some
	// structural slack, the situation compaction is meant to clean up.
	for i := 0; i < n; i += 3 {
		require.NoError(t, src.Delete([]byte(fmt.Sprintf("key-%04d", i))))
	}

	dst, err := Create(dstPath, 6, 12)
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, Recopy(src, dst))

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		v, err := dst.Get(key)
		if i%3 == 0 {
			require.ErrorIs(t, err, ErrKeyNotFound)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, int64(i), v)
	}
}

// S5: a tree carrying a lot of delete-induced slack, recopied into a
// fresh file, must emit the same (k,v) sequence the source does and
// must not grow past the source's file size.
func TestScenarioS5CompactionShrinksOrMatches(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "s5-src.dat")
	dstPath := filepath.Join(t.TempDir(), "s5-dst.dat")

	src, err := Create(srcPath, 8, 12)
	require.NoError(t, err)

	n := 500
	for i := 0; i < n; i++ {
		require.NoError(t, src.Put([]byte(fmt.Sprintf("key-%04d", i)), int64(i)))
	}
	// Delete most of the keys so src carries a lot of structural slack
	// for compaction to clean up.
	for i := 0; i < n; i++ {
		if i%5 != 0 {
			require.NoError(t, src.Delete([]byte(fmt.Sprintf("key-%04d", i))))
		}
	}
	require.NoError(t, src.Close())

	src, err = Open(srcPath)
	require.NoError(t, err)
	defer src.Close()

	dst, err := Create(dstPath, 8, 12)
	require.NoError(t, err)

	require.NoError(t, Recopy(src, dst))
	require.NoError(t, dst.Close())

	srcInfo, err := os.Stat(srcPath)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dstPath)
	require.NoError(t, err)
	require.LessOrEqual(t, dstInfo.Size(), srcInfo.Size())

	dst, err = Open(dstPath)
	require.NoError(t, err)
	defer dst.Close()

	srcWalker, err := NewWalker(src, nil, true, nil, false)
	require.NoError(t, err)
	dstWalker, err := NewWalker(dst, nil, true, nil, false)
	require.NoError(t, err)

	srcOK, err := srcWalker.First()
	require.NoError(t, err)
	dstOK, err := dstWalker.First()
	require.NoError(t, err)

	var count int
	for srcOK {
		require.True(t, dstOK, "dst walker exhausted before src")
		require.Equal(t, srcWalker.CurrentKey(), dstWalker.CurrentKey())
		require.Equal(t, srcWalker.CurrentValue(), dstWalker.CurrentValue())
		count++
		srcOK, err = srcWalker.Next()
		require.NoError(t, err)
		dstOK, err = dstWalker.Next()
		require.NoError(t, err)
	}
	require.False(t, dstOK, "dst walker produced extra entries")
	require.Equal(t, int64(count), dst.Len())
}
