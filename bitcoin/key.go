package bitcoin

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

const (
	// KeySize is the size of a serialized private key scalar.
	KeySize = 32

	// wifCompressedMarker follows the key in WIF text for keys whose public key is serialized
	// compressed.
	wifCompressedMarker = 0x01
)

var (
	curveS256       = btcec.S256()
	curveS256Params = curveS256.Params()

	ErrBadKeyLength          = errors.New("Key has invalid length")
	ErrBadKeyType            = errors.New("Key type unknown")
	ErrOutOfRangeKey         = errors.New("Out of range key")
	ErrRandomnessUnavailable = errors.New("Randomness unavailable")
)

// Key is an elliptic curve private key using the secp256k1 elliptic curve.
type Key struct {
	value big.Int
	net   Network
}

// GenerateKey draws a private key uniformly from [1, n-1] using the random source. Candidates
// outside the range are discarded and redrawn.
func GenerateKey(r io.Reader, net Network) (Key, error) {
	var b [KeySize]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Key{}, errors.Wrap(ErrRandomnessUnavailable, err.Error())
		}

		if privateKeyIsValid(b[:]) == nil {
			break
		}
	}

	return KeyFromNumber(b[:], net)
}

// KeyFromStr converts WIF (Wallet Import Format) key text to a key.
func KeyFromStr(s string) (Key, error) {
	version, b, err := Base58CheckDecode(s)
	if err != nil {
		return Key{}, err
	}

	var network Network
	switch version {
	case MainNet.PrivateKeyVersion():
		network = MainNet
	case TestNet.PrivateKeyVersion():
		network = TestNet
	default:
		return Key{}, errors.Wrap(ErrBadKeyType, fmt.Sprintf("version 0x%02x", version))
	}

	switch len(b) {
	case KeySize:
		return KeyFromNumber(b, network)
	case KeySize + 1:
		if b[KeySize] != wifCompressedMarker {
			return Key{}, fmt.Errorf("Key not for compressed public : %x", b[KeySize:])
		}
		return KeyFromNumber(b[:KeySize], network)
	}

	return Key{}, errors.Wrap(ErrBadKeyLength, fmt.Sprintf("WIF payload %d bytes", len(b)))
}

// KeyFromNumber creates a key from a byte representation of a big number.
func KeyFromNumber(b []byte, net Network) (Key, error) {
	if len(b) != KeySize {
		return Key{}, errors.Wrap(ErrBadKeyLength, fmt.Sprintf("%d bytes", len(b)))
	}
	if err := privateKeyIsValid(b); err != nil {
		return Key{}, err
	}

	result := Key{net: net}
	result.value.SetBytes(b)
	return result, nil
}

// String returns the key in WIF. The version byte is followed by the key data with a checksum,
// encoded with Base58. No compressed public key marker is appended.
func (k Key) String() string {
	return Base58CheckEncode(k.net.PrivateKeyVersion(), k.Number())
}

// EncodeWIF returns the WIF text of a raw 32 byte private key.
func EncodeWIF(b []byte, net Network) (string, error) {
	key, err := KeyFromNumber(b, net)
	if err != nil {
		return "", err
	}

	return key.String(), nil
}

// Network returns the network id for the key.
func (k Key) Network() Network {
	return k.net
}

// SetString decodes a key from WIF text.
func (k *Key) SetString(s string) error {
	nk, err := KeyFromStr(s)
	if err != nil {
		return err
	}

	*k = nk
	return nil
}

// Number returns 32 bytes representing the 256 bit big-endian integer of the private key.
func (k Key) Number() []byte {
	b := make([]byte, KeySize)
	k.value.FillBytes(b)
	return b
}

// PublicKey returns the public key.
func (k Key) PublicKey() PublicKey {
	x, y := curveS256.ScalarBaseMult(k.Number())
	return PublicKey{X: *x, Y: *y}
}

// MarshalText returns the WIF text of the key.
// Implements encoding.TextMarshaler interface.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses WIF text.
// Implements encoding.TextUnmarshaler interface.
func (k *Key) UnmarshalText(text []byte) error {
	return k.SetString(string(text))
}

var zeroKeyValue [KeySize]byte

func privateKeyIsValid(b []byte) error {
	// Check for zero private key
	if bytes.Equal(b, zeroKeyValue[:]) {
		return ErrOutOfRangeKey
	}

	// Check for key outside curve
	if new(big.Int).SetBytes(b).Cmp(curveS256Params.N) >= 0 {
		return ErrOutOfRangeKey
	}

	return nil
}
