package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const (
	leaf0      = "0x56570de287d73cd1cb6092bb8fdee6173974955fdef345ae579ee9f475ea7432"
	leaf1      = "0x7feee1d19a60bcdfb43be154142382399a2fcf31455099331af941304e71798d"
	leaf2      = "0xb54922573c27697c1a45fbdb04f41f3730976a59486c4ede520802964d3ca8ab"
	goldenRoot = "0x6e84ff5d0bea1bfa5739ec39ccb267ba92641a7c80b5eb2198dc5b19456ed61a"
	otherRoot  = "0x3638c4f038e5d7f9883af8adf3c16ea77443ea9fa36423a32cf429c9b115dd0a"
)

func runCommand(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

func TestCompute(t *testing.T) {
	leaves := leaf0 + "," + leaf1 + "," + leaf2
	tests := []struct {
		args   []string
		status int
		stdout string
		stderr string // substring
	}{
		{[]string{"compute", leaves}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", leaf0, leaf1 + "," + leaf2}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", leaves, "--expect", goldenRoot}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", "-expect", goldenRoot, leaves}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", leaves, "--expect", otherRoot}, 1, goldenRoot + "\n", "root mismatch: expected " + otherRoot + ", computed " + goldenRoot},
		{[]string{"compute", leaf0 + ",0x1234"}, 1, "", "leaf 1: malformed hash \"0x1234\""},
		{[]string{"compute", leaves, "-expect", "0x1234"}, 1, "", "expected root: malformed hash"},
		{[]string{"compute", leaves, "--expect", ""}, 1, "", "expected root: malformed hash \"\""},
		{[]string{"compute", "-expect=", leaves}, 1, "", "expected root: malformed hash \"\""},
		{[]string{"compute", "--", leaves}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", "-expect", goldenRoot, "--", leaf0, leaf1 + "," + leaf2}, 0, goldenRoot + "\n", ""},
		{[]string{"compute", "--", leaves, "-v"}, 1, "", "leaf 3: malformed hash \"-v\""},
		{[]string{"compute", leaf2}, 0, leaf2 + "\n", ""},
		{[]string{"compute", "-j", "3", leaves}, 0, goldenRoot + "\n", ""},
		{[]string{"compute"}, 2, "", "usage:"},
		{[]string{"compute", "-bogus", leaves}, 2, "", "flag provided but not defined"},
		{[]string{"frobnicate"}, 2, "", "usage:"},
		{nil, 2, "", "usage:"},
	}
	for i, test := range tests {
		status, stdout, stderr := runCommand(t, "", test.args...)
		if status != test.status {
			t.Errorf("#%d: %q exited %d, want %d (stderr %q)", i, test.args, status, test.status, stderr)
		}
		if stdout != test.stdout {
			t.Errorf("#%d: %q printed %q, want %q", i, test.args, stdout, test.stdout)
		}
		if !strings.Contains(stderr, test.stderr) {
			t.Errorf("#%d: %q stderr = %q, want it to contain %q", i, test.args, stderr, test.stderr)
		}
	}
}

func TestComputeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaves.txt")
	if err := os.WriteFile(path, []byte(leaf0+"\n"+leaf1+"\n\n"+leaf2+"\n"), 0666); err != nil {
		t.Fatal(err)
	}
	status, stdout, stderr := runCommand(t, "", "compute", "-file", path, "-expect", goldenRoot)
	if status != 0 || stdout != goldenRoot+"\n" {
		t.Errorf("compute -file = %d, %q (stderr %q)", status, stdout, stderr)
	}

	status, _, stderr = runCommand(t, "", "compute", "-file", path, leaf0)
	if status != 2 {
		t.Errorf("compute with both -file and leaves exited %d, want 2 (stderr %q)", status, stderr)
	}

	status, _, stderr = runCommand(t, "", "compute", "-file", filepath.Join(t.TempDir(), "missing"))
	if status != 1 || stderr == "" {
		t.Errorf("compute with missing file exited %d (stderr %q)", status, stderr)
	}
}

func TestComputeFromStdin(t *testing.T) {
	status, stdout, stderr := runCommand(t, leaf0+","+leaf1+"\n"+leaf2+"\n", "compute", "-file", "-")
	if status != 0 || stdout != goldenRoot+"\n" {
		t.Errorf("compute -file - = %d, %q (stderr %q)", status, stdout, stderr)
	}

	status, _, stderr = runCommand(t, "# nothing here\n", "compute", "-file", "-")
	if status != 1 || !strings.Contains(stderr, "leaf sequence is empty") {
		t.Errorf("compute of empty stdin = %d (stderr %q)", status, stderr)
	}
}

func TestComputeVerbose(t *testing.T) {
	t.Setenv(parallelismEnv, "")
	leaves := leaf0 + "," + leaf1 + "," + leaf2
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"compute", "-v", leaves}, fmt.Sprintf("merkleroot: 3 leaves, padded to 4, parallelism %d\n", runtime.GOMAXPROCS(0))},
		{[]string{"compute", "-v", "-j", "3", leaves}, "merkleroot: 3 leaves, padded to 4, parallelism 3\n"},
		{[]string{"compute", "-j", "0", leaves, "-v"}, fmt.Sprintf("merkleroot: 3 leaves, padded to 4, parallelism %d\n", runtime.GOMAXPROCS(0))},
	}
	for i, test := range tests {
		status, _, stderr := runCommand(t, "", test.args...)
		if status != 0 || stderr != test.want {
			t.Errorf("#%d: %q = %d, stderr %q, want %q", i, test.args, status, stderr, test.want)
		}
	}
}

func TestParallelismEnv(t *testing.T) {
	t.Setenv(parallelismEnv, "2")
	status, stdout, _ := runCommand(t, "", "compute", leaf0+","+leaf1+","+leaf2)
	if status != 0 || stdout != goldenRoot+"\n" {
		t.Errorf("compute with $%s=2 = %d, %q", parallelismEnv, status, stdout)
	}

	t.Setenv(parallelismEnv, "lots")
	status, _, stderr := runCommand(t, "", "compute", leaf0)
	if status != 1 || !strings.Contains(stderr, parallelismEnv) {
		t.Errorf("compute with $%s=lots = %d (stderr %q)", parallelismEnv, status, stderr)
	}
}

func TestLevels(t *testing.T) {
	status, stdout, stderr := runCommand(t, "", "levels", leaf0+","+leaf1+","+leaf2)
	if status != 0 {
		t.Fatalf("levels exited %d (stderr %q)", status, stderr)
	}
	want := strings.Join([]string{
		"level 0:",
		leaf0,
		leaf1,
		leaf2,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		"level 1:",
		"0x70abf6fb3d49d908f03e47ee7e5b208e6f6011a232a7142a117e9f33a2fbdd50",
		"0x166001c93c71839517de238ef2ccaab8d3ee6a184b13fdf5e9f509830742a092",
		"level 2:",
		goldenRoot,
	}, "\n") + "\n"
	if stdout != want {
		t.Errorf("levels printed\n%s\nwant\n%s", stdout, want)
	}
}

func TestEmpty(t *testing.T) {
	status, stdout, _ := runCommand(t, "", "empty")
	if status != 0 || stdout != "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470\n" {
		t.Errorf("empty = %d, %q", status, stdout)
	}
	if status, _, _ := runCommand(t, "", "empty", "extra"); status != 2 {
		t.Errorf("empty with arguments exited %d, want 2", status)
	}
}
