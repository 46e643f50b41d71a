package bitcoin

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

const (
	PublicKeyCompressedLength   = 33
	PublicKeyUncompressedLength = 65

	publicKeyUncompressedPrefix = 0x04
)

// PublicKey is an elliptic curve public key using the secp256k1 elliptic curve.
type PublicKey struct {
	X, Y big.Int
}

// PublicKeyFromStr converts hex key text to a key.
func PublicKeyFromStr(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "hex")
	}

	return PublicKeyFromBytes(b)
}

// PublicKeyFromBytes decodes a serialized public key in either compressed (33 byte) or
// uncompressed (65 byte) form.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != PublicKeyCompressedLength && len(b) != PublicKeyUncompressedLength {
		return PublicKey{}, fmt.Errorf("Invalid public key length : got %d, want %d or %d", len(b),
			PublicKeyCompressedLength, PublicKeyUncompressedLength)
	}

	pk, err := btcec.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, errors.Wrap(ErrOutOfRangeKey, err.Error())
	}

	var result PublicKey
	result.X.Set(pk.X())
	result.Y.Set(pk.Y())
	return result, nil
}

// Bytes returns the uncompressed serialization: 0x04 followed by the 32 byte X and Y values.
func (k PublicKey) Bytes() []byte {
	result := make([]byte, PublicKeyUncompressedLength)
	result[0] = publicKeyUncompressedPrefix
	k.X.FillBytes(result[1:33])
	k.Y.FillBytes(result[33:])
	return result
}

// CompressedBytes returns the 33 byte compressed serialization.
func (k PublicKey) CompressedBytes() []byte {
	result := make([]byte, PublicKeyCompressedLength)

	// Header byte is 0x02 for even y value and 0x03 for odd
	result[0] = byte(0x02) + byte(k.Y.Bit(0))
	k.X.FillBytes(result[1:])
	return result
}

// String returns the hex of the uncompressed key.
func (k PublicKey) String() string {
	return hex.EncodeToString(k.Bytes())
}

func (k PublicKey) Equal(o PublicKey) bool {
	return k.X.Cmp(&o.X) == 0 && k.Y.Cmp(&o.Y) == 0
}
