// Copyright (C) 2026 Opsmate, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a
// copy of this software and associated documentation files (the "Software"),
// to deal in the Software without restriction, including without limitation
// the rights to use, copy, modify, merge, publish, distribute, sublicense,
// and/or sell copies of the Software, and to permit persons to whom the
// Software is furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included
// in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL
// THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// Except as contained in this notice, the name(s) of the above copyright
// holders shall not be used in advertising or otherwise to promote the
// sale, use or other dealings in this Software without prior written
// authorization.

// Package merkle computes keccak256 Merkle roots over 32-byte leaves.
//
// The leaf level is padded with EmptyHash to a power of two, and each
// parent is the hash of its two children in ascending numeric order.
package merkle

import (
	"math/bits"
	"runtime"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"
)

// Levels with fewer pairs than this are hashed on the calling goroutine
var parallelThreshold = 1 << 14

type Options struct {
	// Parallelism bounds the goroutines used to hash one level.
	// Zero means runtime.GOMAXPROCS(0).
	Parallelism int
}

// PaddedSize returns the smallest power of two >= n, for n >= 1
func PaddedSize(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Root computes the root of leaves using default Options
func Root(leaves []Hash) (Hash, error) {
	return new(Options).Root(leaves)
}

// Verify reports whether leaves fold to expected
func Verify(leaves []Hash, expected Hash) (bool, error) {
	root, err := Root(leaves)
	if err != nil {
		return false, err
	}
	return root == expected, nil
}

// Levels returns every level of the tree, starting with the padded leaf
// level and ending with a one-element level holding the root
func Levels(leaves []Hash) ([][]Hash, error) {
	return new(Options).Levels(leaves)
}

func (opts *Options) Root(leaves []Hash) (Hash, error) {
	level, err := padLeaves(leaves)
	if err != nil {
		return Hash{}, err
	}
	for len(level) > 1 {
		if level, err = opts.hashLevel(level); err != nil {
			return Hash{}, err
		}
	}
	return level[0], nil
}

func (opts *Options) Levels(leaves []Hash) ([][]Hash, error) {
	level, err := padLeaves(leaves)
	if err != nil {
		return nil, err
	}
	levels := make([][]Hash, 0, bits.Len(uint(len(level))))
	levels = append(levels, level)
	for len(level) > 1 {
		if level, err = opts.hashLevel(level); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func padLeaves(leaves []Hash) ([]Hash, error) {
	if len(leaves) == 0 {
		return nil, &EmptyInputError{}
	}
	level := make([]Hash, PaddedSize(len(leaves)))
	n := copy(level, leaves)
	for i := n; i < len(level); i++ {
		level[i] = EmptyHash
	}
	return level, nil
}

// Workers returns the number of goroutines used to hash one level
func (opts *Options) Workers() int {
	if opts.Parallelism > 0 {
		return opts.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// hashLevel combines pairs (2i, 2i+1) of below, which has even length
func (opts *Options) hashLevel(below []Hash) ([]Hash, error) {
	parents := make([]Hash, len(below)/2)
	workers := opts.Workers()
	if len(parents) < parallelThreshold || workers == 1 {
		hashRange(below, parents, 0, len(parents))
		return parents, nil
	}

	chunk := (len(parents) + workers - 1) / workers
	group := errgroup.Group{}
	group.SetLimit(workers)
	for start := 0; start < len(parents); start += chunk {
		end := min(start+chunk, len(parents))
		start := start
		group.Go(func() error {
			hashRange(below, parents, start, end)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return parents, nil
}

func hashRange(below, parents []Hash, start, end int) {
	hasher := sha3.NewLegacyKeccak256()
	for i := start; i < end; i++ {
		parents[i] = hashChildren(hasher, below[2*i], below[2*i+1])
	}
}
