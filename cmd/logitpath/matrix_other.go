// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package main

import "github.com/cockroachdb/errors"

func openMapped(path string, rows, cols int) (matrix, error) {
	return nil, errors.Newf("memory mapping %s is not supported on this platform", path)
}
