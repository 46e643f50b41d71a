package capsule

import (
	"strings"

	"github.com/Vikkingg13/BitCapsule/bitcoin"

	"github.com/pkg/errors"
)

const (
	DigestNameSha256d = "sha256d"
	DigestNameHash160 = "hash160"
)

// Digest is the hash used both to reduce the public key inside the redeem script and to reduce the
// redeem script into the P2SH address. HashOp is the script op code that performs the same hash
// when the script is executed.
type Digest interface {
	Name() string
	Size() int
	HashOp() byte
	Hash(b []byte) []byte
}

var (
	// DigestSha256d is SHA256(SHA256(b)) with a 32 byte result.
	DigestSha256d Digest = sha256dDigest{}

	// DigestHash160 is RIPEMD160(SHA256(b)) with a 20 byte result.
	DigestHash160 Digest = hash160Digest{}

	digests = []Digest{DigestSha256d, DigestHash160}
)

// DigestFromName returns the digest with the specified name. Names are not case sensitive.
func DigestFromName(name string) (Digest, error) {
	for _, digest := range digests {
		if strings.EqualFold(digest.Name(), name) {
			return digest, nil
		}
	}

	return nil, errors.Wrap(ErrUnknownDigest, name)
}

// digestForOp returns the digest that matches the hash op code and size found in a script.
func digestForOp(hashOp byte, size int) (Digest, bool) {
	for _, digest := range digests {
		if digest.HashOp() == hashOp && digest.Size() == size {
			return digest, true
		}
	}

	return nil, false
}

type sha256dDigest struct{}

func (sha256dDigest) Name() string {
	return DigestNameSha256d
}

func (sha256dDigest) Size() int {
	return bitcoin.Hash32Size
}

func (sha256dDigest) HashOp() byte {
	return bitcoin.OP_HASH256
}

func (sha256dDigest) Hash(b []byte) []byte {
	return bitcoin.DoubleSha256(b)
}

type hash160Digest struct{}

func (hash160Digest) Name() string {
	return DigestNameHash160
}

func (hash160Digest) Size() int {
	return bitcoin.Hash20Size
}

func (hash160Digest) HashOp() byte {
	return bitcoin.OP_HASH160
}

func (hash160Digest) Hash(b []byte) []byte {
	return bitcoin.Hash160(b)
}
