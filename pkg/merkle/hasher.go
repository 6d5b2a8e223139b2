package merkle

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
)

// DigestSize is the width of every internal node and of a well-formed root.
const DigestSize = 32

const (
	HasherSHA256     = "sha256"
	HasherKeccak256  = "keccak256"
	HasherBlake2b256 = "blake2b256"

	DefaultHasher = HasherSHA256
)

// Hasher produces a 32-byte digest over the concatenation of its inputs.
// Hash(a, b) must equal Hash(append(a, b...)).
type Hasher interface {
	Name() string
	Hash(data ...[]byte) []byte
}

type sha256Hasher struct{}

func (sha256Hasher) Name() string { return HasherSHA256 }

func (sha256Hasher) Hash(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// keccak256Hasher matches Solidity's keccak256(abi.encodePacked(...)).
type keccak256Hasher struct{}

func (keccak256Hasher) Name() string { return HasherKeccak256 }

func (keccak256Hasher) Hash(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

type blake2b256Hasher struct{}

func (blake2b256Hasher) Name() string { return HasherBlake2b256 }

func (blake2b256Hasher) Hash(data ...[]byte) []byte {
	// New256 only fails for keys longer than 64 bytes
	h, _ := blake2b.New256(nil)
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

var hashers = map[string]Hasher{
	HasherSHA256:     sha256Hasher{},
	HasherKeccak256:  keccak256Hasher{},
	HasherBlake2b256: blake2b256Hasher{},
}

// SHA256 returns the reference hasher.
func SHA256() Hasher { return sha256Hasher{} }

// Keccak256 returns the Ethereum keccak256 hasher.
func Keccak256() Hasher { return keccak256Hasher{} }

// Blake2b256 returns the 256-bit BLAKE2b hasher.
func Blake2b256() Hasher { return blake2b256Hasher{} }

// HasherForName looks up a registered hasher. An empty name selects DefaultHasher.
func HasherForName(name string) (Hasher, error) {
	if name == "" {
		name = DefaultHasher
	}
	h, ok := hashers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported hasher %q (supported: %v)", name, SupportedHashers())
	}
	return h, nil
}

// SupportedHashers lists registered hasher names in sorted order.
func SupportedHashers() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
