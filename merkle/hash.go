package merkle

import (
	"hash"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

const HashLen = 32

type Hash [HashLen]byte

// EmptyHash is keccak256 of the empty string, used to pad the leaf level
var EmptyHash = hashNothing()

func hashNothing() (h Hash) {
	sha3.NewLegacyKeccak256().Sum(h[:0])
	return
}

// Compare orders a and b as big-endian unsigned integers
func Compare(a, b Hash) int {
	var x, y uint256.Int
	x.SetBytes32(a[:])
	y.SetBytes32(b[:])
	return x.Cmp(&y)
}

// HashChildren returns keccak256(min(a,b) || max(a,b)), so the parent
// does not depend on which child is stored on the left.
func HashChildren(a, b Hash) Hash {
	return hashChildren(sha3.NewLegacyKeccak256(), a, b)
}

func hashChildren(hasher hash.Hash, a, b Hash) (parent Hash) {
	if Compare(a, b) > 0 {
		a, b = b, a
	}
	hasher.Reset()
	hasher.Write(a[:])
	hasher.Write(b[:])
	hasher.Sum(parent[:0])
	return
}
