// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigmat

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sample(t *testing.T) *Dense {
	t.Helper()
	// 4 × 3, column-major
	d, err := NewDense(4, 3, []float64{
		1, 2, 3, 4,
		-1, 0.5, 0, 7,
		10, 20, 30, 40,
	})
	require.NoError(t, err)
	return d
}

func TestDense(t *testing.T) {
	d := sample(t)
	require.Equal(t, 4, d.Rows())
	require.Equal(t, 3, d.Cols())
	require.Equal(t, []float64{-1, 0.5, 0, 7}, d.Col(1))
	require.Equal(t, 30.0, d.At(2, 2))

	_, err := NewDense(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrBadShape)
	_, err = NewDense(0, 2, nil)
	require.ErrorIs(t, err, ErrBadShape)
}

func TestFromMatrix(t *testing.T) {
	g := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	d := FromMatrix(g)
	require.Equal(t, []float64{1, 4}, d.Col(0))
	require.Equal(t, []float64{3, 6}, d.Col(2))
	require.True(t, mat.Equal(g, d))
}

func TestFileRoundTrip(t *testing.T) {
	d := sample(t)
	path := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, WriteFile(path, d))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 4*3*8, info.Size())

	c, err := OpenChunkFile(path, 4, 3)
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, path, c.Path())

	for j := 0; j < 3; j++ {
		require.Equal(t, d.Col(j), c.Col(j))
	}
}

func TestForEachChunk(t *testing.T) {
	d := sample(t)
	path := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, WriteFile(path, d))

	c, err := OpenChunkFile(path, 4, 3)
	require.NoError(t, err)
	defer c.Close()
	require.EqualValues(t, 2*8*4, c.ChunkBytes(2))

	for _, width := range []int{1, 2, 3, 5} {
		var firsts []int
		seen := 0
		err = c.ForEachChunk(width, func(first int, cols [][]float64) error {
			firsts = append(firsts, first)
			for k, col := range cols {
				require.Equal(t, d.Col(first+k), col)
				seen++
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, seen, "width %d", width)
		require.Equal(t, 0, firsts[0])
	}

	require.ErrorIs(t, c.ForEachChunk(0, nil), ErrBadChunk)
}

func TestOpenFailures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.bin")
	_, err := OpenChunkFile(missing, 4, 3)
	require.ErrorIs(t, err, ErrOpenFile)
	require.Contains(t, err.Error(), missing)


	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, WriteFile(path, sample(t)))
	_, err = OpenChunkFile(path, 5, 3)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestChunkFileCol(t *testing.T) {
	d := sample(t)
	path := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, WriteFile(path, d))
	c, err := OpenChunkFile(path, 4, 3)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				j := (g + k) % 3
				assert.Equal(t, d.Col(j), c.Col(j))
			}
		}()
	}
	wg.Wait()

	// only the returned column is allocated once the buffer pool is warm
	allocs := testing.AllocsPerRun(100, func() { c.Col(1) })
	require.Less(t, allocs, 2.0)

	require.NoError(t, os.Truncate(path, 8*4))
	require.Panics(t, func() { c.Col(2) })
}
