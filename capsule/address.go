package capsule

import (
	"github.com/Vikkingg13/BitCapsule/bitcoin"

	"github.com/pkg/errors"
)

// EncodeAddress returns the P2SH address paying to the redeem script. The script is reduced with
// the same digest used for the public key.
func EncodeAddress(script bitcoin.Script, digest Digest, net bitcoin.Network) (bitcoin.Address,
	error) {

	address, err := bitcoin.NewAddressSH(digest.Hash(script), net)
	if err != nil {
		return bitcoin.Address{}, errors.Wrap(ErrEncodingFailure, err.Error())
	}

	return address, nil
}
