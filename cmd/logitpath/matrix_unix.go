// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package main

import "github.com/curioloop/sparselr/bigmat"

func openMapped(path string, rows, cols int) (matrix, error) {
	m, err := bigmat.OpenMapped(path, rows, cols)
	if err != nil {
		return nil, err
	}
	return m, nil
}
