// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// parallelFor splits [0, n) into contiguous blocks, at most one per worker,
// and runs fn on each block with at most threads blocks in flight.
// fn owns its block exclusively. The returned count is the sum of the
// per-block counts taken in block order, so it does not depend on scheduling.
// A panic inside fn is returned as an error.
func parallelFor(threads, n int, fn func(lo, hi int) int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	blocks := max(min(threads, n), 1)
	if blocks == 1 {
		return guard(0, n, fn)
	}

	counts := make([]int, blocks)
	var g errgroup.Group
	g.SetLimit(blocks)
	for b := 0; b < blocks; b++ {
		lo, hi := b*n/blocks, (b+1)*n/blocks
		g.Go(func() (err error) {
			counts[b], err = guard(lo, hi, fn)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

func guard(lo, hi int, fn func(lo, hi int) int) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = errors.New(fmt.Sprint(r))
			}
		}
	}()
	return fn(lo, hi), nil
}
