// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package bigmat

import (
	"encoding/binary"
	"os"
	"syscall"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Mapped is a binary matrix file mapped read-only into memory.
// Pages are loaded by the kernel on first touch, so matrices larger
// than physical memory remain addressable.
type Mapped struct {
	rows, cols int
	raw        []byte
	data       []float64
}

// OpenMapped maps the binary file at path as a rows × cols matrix.
func OpenMapped(path string, rows, cols int) (*Mapped, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrBadShape, "rows=%d cols=%d", rows, cols)
	}
	if binary.NativeEndian.Uint16([]byte{1, 0}) != 1 {
		return nil, ErrByteOrder
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenFile, "filename = %s: %v", path, err)
	}
	defer f.Close()

	size := int64(rows) * int64(cols) * 8
	var stat syscall.Stat_t
	if err = syscall.Fstat(int(f.Fd()), &stat); err != nil {
		return nil, errors.Wrapf(ErrOpenFile, "filename = %s: %v", path, err)
	}
	if stat.Size < size {
		return nil, errors.Wrapf(ErrShortRead, "filename = %s, size = %d, want %d", path, stat.Size, size)
	}

	raw, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenFile, "filename = %s: mmap: %v", path, err)
	}

	data := unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(raw))), rows*cols)
	return &Mapped{rows: rows, cols: cols, raw: raw, data: data}, nil
}

func (m *Mapped) Rows() int { return m.rows }

func (m *Mapped) Cols() int { return m.cols }

func (m *Mapped) Col(j int) []float64 {
	return m.data[j*m.rows : (j+1)*m.rows : (j+1)*m.rows]
}

// Close unmaps the file. Columns obtained earlier must not be used afterwards.
func (m *Mapped) Close() error {
	if m.raw == nil {
		return nil
	}
	raw := m.raw
	m.raw, m.data = nil, nil
	return syscall.Munmap(raw)
}
