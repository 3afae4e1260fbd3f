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

// merkleroot computes the sorted-pair keccak256 Merkle root of a list of leaf hashes
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"software.sslmate.com/src/sortedmerkle/merkle"
)

const parallelismEnv = "MERKLEROOT_PARALLELISM"

const usageText = `usage: merkleroot compute [-expect ROOT] [-file PATH] [-j N] [-v] [LEAF,LEAF,...]...
       merkleroot levels [-file PATH] [-j N] [LEAF,LEAF,...]...
       merkleroot empty
`

var errUsage = errors.New("invalid usage")

type command struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := &command{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    log.New(stderr, "merkleroot: ", 0),
	}
	if len(args) == 0 {
		return cmd.usage()
	}

	var err error
	switch args[0] {
	case "compute":
		err = cmd.compute(args[1:])
	case "levels":
		err = cmd.levels(args[1:])
	case "empty":
		if len(args) != 1 {
			return cmd.usage()
		}
		fmt.Fprintln(cmd.stdout, merkle.EmptyHash)
	default:
		return cmd.usage()
	}

	var mismatch *mismatchError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return cmd.usage()
	case errors.Is(err, errUsage):
		if err != errUsage {
			cmd.log.Print(err)
		}
		return cmd.usage()
	case errors.As(err, &mismatch):
		fmt.Fprintln(cmd.stderr, err)
		return 1
	default:
		cmd.log.Print(err)
		return 1
	}
}

func (cmd *command) usage() int {
	fmt.Fprint(cmd.stderr, usageText)
	return 2
}

type mismatchError struct {
	expected, computed merkle.Hash
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("root mismatch: expected %s, computed %s", e.expected, e.computed)
}

type leafFlags struct {
	file    string
	jobs    int
	verbose bool
}

func (cmd *command) newFlagSet(name string) (*flag.FlagSet, *leafFlags, error) {
	jobs := 0
	if env := os.Getenv(parallelismEnv); env != "" {
		var err error
		if jobs, err = strconv.Atoi(env); err != nil || jobs < 0 {
			return nil, nil, fmt.Errorf("$%s must be a non-negative integer, not %q", parallelismEnv, env)
		}
	}

	flags := new(leafFlags)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&flags.file, "file", "", "Read leaves from `PATH`, one per line or comma-separated (- for stdin)")
	fs.IntVar(&flags.jobs, "j", jobs, "Hash each level with up to `N` goroutines (0 for GOMAXPROCS)")
	fs.BoolVar(&flags.verbose, "v", false, "Log tree dimensions to stderr")
	return fs, flags, nil
}

// parseArgs parses flags that may appear before, between, or after positional arguments
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", errUsage, err)
		}
		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func (cmd *command) readLeaves(flags *leafFlags, positional []string) ([]merkle.Hash, error) {
	if flags.file == "" {
		var inputs []string
		for _, arg := range positional {
			inputs = append(inputs, merkle.SplitLeaves(arg)...)
		}
		if len(inputs) == 0 {
			return nil, errUsage
		}
		return merkle.ParseLeaves(inputs)
	}
	if len(positional) != 0 {
		return nil, errUsage
	}
	if flags.file == "-" {
		return merkle.ReadLeaves(cmd.stdin)
	}
	f, err := os.Open(flags.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	leaves, err := merkle.ReadLeaves(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flags.file, err)
	}
	return leaves, nil
}

func (cmd *command) compute(args []string) error {
	fs, flags, err := cmd.newFlagSet("compute")
	if err != nil {
		return err
	}
	var (
		expectString string
		expectSet    bool
	)
	fs.Func("expect", "Exit with status 1 unless the computed root equals `ROOT`", func(value string) error {
		expectString, expectSet = value, true
		return nil
	})
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	var expected merkle.Hash
	if expectSet {
		if expected, err = merkle.ParseHash(expectString); err != nil {
			return fmt.Errorf("expected root: %w", err)
		}
	}
	leaves, err := cmd.readLeaves(flags, positional)
	if err != nil {
		return err
	}

	opts := &merkle.Options{Parallelism: flags.jobs}
	if flags.verbose {
		cmd.log.Printf("%d leaves, padded to %d, parallelism %d", len(leaves), merkle.PaddedSize(len(leaves)), opts.Workers())
	}
	root, err := opts.Root(leaves)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.stdout, root)

	if expectSet && root != expected {
		return &mismatchError{expected: expected, computed: root}
	}
	return nil
}

func (cmd *command) levels(args []string) error {
	fs, flags, err := cmd.newFlagSet("levels")
	if err != nil {
		return err
	}
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	leaves, err := cmd.readLeaves(flags, positional)
	if err != nil {
		return err
	}

	opts := &merkle.Options{Parallelism: flags.jobs}
	levels, err := opts.Levels(leaves)
	if err != nil {
		return err
	}
	if flags.verbose {
		cmd.log.Printf("%d leaves, %d levels, parallelism %d", len(leaves), len(levels), opts.Workers())
	}
	for i, level := range levels {
		fmt.Fprintf(cmd.stdout, "level %d:\n", i)
		for _, h := range level {
			fmt.Fprintln(cmd.stdout, h)
		}
	}
	return nil
}
