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

package merkle

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// String returns the hash as 0x followed by 64 lowercase hex digits
func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a 0x-prefixed hex hash. Failures are returned as a
// *FormatError with Index -1.
func ParseHash(input string) (Hash, error) {
	var h Hash
	b, err := hexutil.Decode(input)
	if err != nil {
		return h, &FormatError{Index: -1, Input: input, Err: err}
	}
	if len(b) != HashLen {
		return h, &FormatError{Index: -1, Input: input, Err: fmt.Errorf("hash has wrong length (should be %d bytes long, not %d)", HashLen, len(b))}
	}
	copy(h[:], b)
	return h, nil
}

// ParseLeaves validates and decodes every input before returning, so that
// no hashing happens on a partially valid sequence.
func ParseLeaves(inputs []string) ([]Hash, error) {
	leaves := make([]Hash, len(inputs))
	for i, input := range inputs {
		h, err := ParseHash(input)
		if err != nil {
			err.(*FormatError).Index = i
			return nil, err
		}
		leaves[i] = h
	}
	return leaves, nil
}

// SplitLeaves splits a comma-separated list of hashes, dropping empty fields
func SplitLeaves(list string) []string {
	var fields []string
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// ReadLeaves reads hashes from r, one per line or comma-separated.
// Blank lines and lines starting with # are skipped.
func ReadLeaves(r io.Reader) ([]Hash, error) {
	var inputs []string
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading leaves: %w", err)
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			inputs = append(inputs, SplitLeaves(trimmed)...)
		}
		if err == io.EOF {
			break
		}
	}
	return ParseLeaves(inputs)
}
