package bitcoin

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	AddressTypeMainPKH = 0x00 // Public Key Hash (starts with 1)
	AddressTypeMainSH  = 0x05 // Script Hash (starts with 3)

	AddressTypeTestPKH = 0x6f // Testnet Public Key Hash (starts with m or n)
	AddressTypeTestSH  = 0xc4 // Testnet Script Hash (starts with 2)
)

var (
	ErrBadHashLength = errors.New("Hash has invalid length")
	ErrBadType       = errors.New("Address type unknown")
)

// Address is a Base58Check encoded hash of a public key or a script.
//
// The hash is normally a 20 byte Hash160. 32 byte double SHA256 hashes are also accepted so that
// addresses built with that reduction can be represented and decoded.
type Address struct {
	addressType byte
	hash        []byte
}

// DecodeAddress decodes a base58 text bitcoin address. It returns an error if there was an issue.
func DecodeAddress(address string) (Address, error) {
	var result Address
	err := result.Decode(address)
	return result, err
}

// Decode decodes a base58 text bitcoin address. It returns an error if there was an issue.
func (a *Address) Decode(address string) error {
	version, hash, err := Base58CheckDecode(address)
	if err != nil {
		return err
	}

	switch version {
	case AddressTypeMainPKH:
		return a.SetPKH(hash, MainNet)
	case AddressTypeMainSH:
		return a.SetSH(hash, MainNet)
	case AddressTypeTestPKH:
		return a.SetPKH(hash, TestNet)
	case AddressTypeTestSH:
		return a.SetSH(hash, TestNet)
	}

	return errors.Wrap(ErrBadType, fmt.Sprintf("version 0x%02x", version))
}

// NewAddressPKH creates an address from a public key hash.
func NewAddressPKH(pkh []byte, net Network) (Address, error) {
	var result Address
	err := result.SetPKH(pkh, net)
	return result, err
}

// SetPKH sets the Public Key Hash and type of the address.
func (a *Address) SetPKH(pkh []byte, net Network) error {
	if err := checkHashLength(pkh); err != nil {
		return err
	}

	a.addressType = net.PubKeyHashVersion()
	a.hash = append([]byte(nil), pkh...)
	return nil
}

// NewAddressSH creates an address from a script hash.
func NewAddressSH(sh []byte, net Network) (Address, error) {
	var result Address
	err := result.SetSH(sh, net)
	return result, err
}

// SetSH sets the Script Hash and type of the address.
func (a *Address) SetSH(sh []byte, net Network) error {
	if err := checkHashLength(sh); err != nil {
		return err
	}

	a.addressType = net.ScriptHashVersion()
	a.hash = append([]byte(nil), sh...)
	return nil
}

func (a Address) Type() byte {
	return a.addressType
}

// IsScriptHash returns true for P2SH addresses.
func (a Address) IsScriptHash() bool {
	return a.addressType == AddressTypeMainSH || a.addressType == AddressTypeTestSH
}

// Hash returns the hash carried by the address.
func (a Address) Hash() []byte {
	return append([]byte(nil), a.hash...)
}

// Network returns the network id for the address.
func (a Address) Network() Network {
	switch a.addressType {
	case AddressTypeMainPKH, AddressTypeMainSH:
		return MainNet
	case AddressTypeTestPKH, AddressTypeTestSH:
		return TestNet
	}
	return InvalidNet
}

// String returns the type and address data followed by a checksum encoded with Base58.
func (a Address) String() string {
	return Base58CheckEncode(a.addressType, a.hash)
}

// MarshalText returns the text encoding of the address.
// Implements encoding.TextMarshaler interface.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a text encoded bitcoin address and sets the value of this object.
// Implements encoding.TextUnmarshaler interface.
func (a *Address) UnmarshalText(text []byte) error {
	return a.Decode(string(text))
}

func checkHashLength(hash []byte) error {
	if len(hash) != Hash20Size && len(hash) != Hash32Size {
		return errors.Wrap(ErrBadHashLength, fmt.Sprintf("%d bytes", len(hash)))
	}
	return nil
}
