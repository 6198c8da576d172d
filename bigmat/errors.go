// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigmat

import "github.com/cockroachdb/errors"

// Every error returned by this package matches one of these sentinels under errors.Is.
var (
	// ErrBadShape is returned when a matrix is created with non-positive
	// dimensions or with a backing slice of the wrong length.
	ErrBadShape = errors.New("bigmat: invalid shape")

	// ErrOpenFile is returned when a backing file cannot be opened or mapped.
	ErrOpenFile = errors.New("bigmat: open file failed")

	// ErrShortRead is returned when a backing file holds fewer bytes than
	// its declared shape requires.
	ErrShortRead = errors.New("bigmat: short read")

	// ErrBadChunk is returned for a non-positive chunk width.
	ErrBadChunk = errors.New("bigmat: invalid chunk width")

	// ErrByteOrder is returned when mapping raw little-endian data on a
	// big-endian host.
	ErrByteOrder = errors.New("bigmat: host is not little-endian")
)
