// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigmat

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

// ChunkFile reads a binary matrix file without holding it in memory.
// Single columns are fetched on demand with Col and whole groups of
// contiguous columns are streamed with ForEachChunk.
type ChunkFile struct {
	path       string
	rows, cols int
	file       *os.File
	bufs       sync.Pool // *[]byte of one column, reused by Col
}

// OpenChunkFile opens the binary file at path as a rows × cols matrix.
func OpenChunkFile(path string, rows, cols int) (*ChunkFile, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrBadShape, "rows=%d cols=%d", rows, cols)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenFile, "filename = %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(ErrOpenFile, "filename = %s: %v", path, err)
	}
	if want := int64(rows) * int64(cols) * 8; info.Size() < want {
		_ = f.Close()
		return nil, errors.Wrapf(ErrShortRead, "filename = %s, size = %d, want %d", path, info.Size(), want)
	}
	c := &ChunkFile{path: path, rows: rows, cols: cols, file: f}
	c.bufs.New = func() any {
		buf := make([]byte, rows*8)
		return &buf
	}
	return c, nil
}

func (c *ChunkFile) Rows() int { return c.rows }

func (c *ChunkFile) Cols() int { return c.cols }

// Path returns the backing file name.
func (c *ChunkFile) Path() string { return c.path }

// Col reads the j-th column from disk.
// A read failure is unrecoverable for a fit in progress, so Col panics with
// an error wrapping ErrShortRead; solvers recover it at their boundary.
// The read buffer is pooled so concurrent scans do not allocate one per call.
func (c *ChunkFile) Col(j int) []float64 {
	col := make([]float64, c.rows)
	buf := c.bufs.Get().(*[]byte)
	err := c.readCols(j, 1, *buf, col)
	c.bufs.Put(buf)
	if err != nil {
		panic(err)
	}
	return col
}

// ChunkBytes returns the size in bytes of a chunk of width columns.
func (c *ChunkFile) ChunkBytes(width int) int64 {
	return int64(width) * 8 * int64(c.rows)
}

// ForEachChunk loads width contiguous columns per physical read and calls
// visit with the absolute index of the first column and the loaded columns.
// The last chunk holds the remaining columns and may be narrower.
// The column slices are reused between calls and must not be retained.
func (c *ChunkFile) ForEachChunk(width int, visit func(first int, cols [][]float64) error) error {
	if width <= 0 {
		return errors.Wrapf(ErrBadChunk, "width=%d", width)
	}
	width = min(width, c.cols)
	buf := make([]byte, c.ChunkBytes(width))
	data := make([]float64, width*c.rows)
	cols := make([][]float64, width)

	for first := 0; first < c.cols; first += width {
		k := min(width, c.cols-first)
		if err := c.readCols(first, k, buf[:k*c.rows*8], data[:k*c.rows]); err != nil {
			return err
		}
		for j := 0; j < k; j++ {
			cols[j] = data[j*c.rows : (j+1)*c.rows : (j+1)*c.rows]
		}
		if err := visit(first, cols[:k]); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the file handle.
func (c *ChunkFile) Close() error {
	return c.file.Close()
}

func (c *ChunkFile) readCols(first, k int, buf []byte, dst []float64) error {
	off := int64(first) * int64(c.rows) * 8
	if n, err := c.file.ReadAt(buf, off); err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return errors.Wrapf(ErrShortRead, "filename = %s, chunk_size = %d, offset = %d: %v", c.path, len(buf), off, err)
	}
	decode(buf, dst)
	return nil
}

func decode(buf []byte, dst []float64) {
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
}

// WriteFile stores m at path in the binary column-major layout read by
// OpenMapped and OpenChunkFile.
func WriteFile(path string, m Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrOpenFile, "filename = %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	var word [8]byte
	for j := 0; j < m.Cols(); j++ {
		for _, v := range m.Col(j) {
			binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
			if _, err = w.Write(word[:]); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
		}
	}
	return errors.Wrapf(w.Flush(), "flush %s", path)
}
