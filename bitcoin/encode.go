package bitcoin

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
)

const (
	// Base58Alphabet is the Bitcoin Base58 alphabet. It omits 0, O, I, and l.
	Base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	checkSumSize = 4
)

var (
	ErrInvalidChecksum  = errors.New("Invalid Checksum")
	ErrInvalidCharacter = errors.New("Invalid Base58 Character")
)

// Base58 return the Base58 encoding of the input. Leading zero bytes are encoded as leading '1'
// characters.
//
// See https://en.wikipedia.org/wiki/Base58
func Base58(b []byte) string {
	return base58.Encode(b)
}

// Base58Decode returns base 58 decodes the argument and returns the result.
func Base58Decode(s string) ([]byte, error) {
	for i, r := range s {
		if !strings.ContainsRune(Base58Alphabet, r) {
			return nil, errors.Wrap(ErrInvalidCharacter, fmt.Sprintf("%q at %d", r, i))
		}
	}

	return base58.Decode(s), nil
}

// Base58CheckEncode prefixes the payload with the version byte, appends the first 4 bytes of the
// double SHA256 of that and encodes the result with Base58.
func Base58CheckEncode(version byte, payload []byte) string {
	b := make([]byte, 0, 1+len(payload)+checkSumSize)
	b = append(b, version)
	b = append(b, payload...)

	checkSum := DoubleSha256(b)
	return Base58(append(b, checkSum[:checkSumSize]...))
}

// Base58CheckDecode reverses Base58CheckEncode. It returns the version byte and the payload.
func Base58CheckDecode(s string) (byte, []byte, error) {
	b, err := Base58Decode(s)
	if err != nil {
		return 0, nil, err
	}

	if len(b) < 1+checkSumSize {
		return 0, nil, errors.Wrap(ErrInvalidChecksum, fmt.Sprintf("too short : %d bytes", len(b)))
	}

	dataSize := len(b) - checkSumSize
	checkSum := DoubleSha256(b[:dataSize])
	if !bytes.Equal(checkSum[:checkSumSize], b[dataSize:]) {
		return 0, nil, ErrInvalidChecksum
	}

	payload := make([]byte, dataSize-1)
	copy(payload, b[1:dataSize])
	return b[0], payload, nil
}
