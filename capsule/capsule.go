package capsule

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/Vikkingg13/BitCapsule/bitcoin"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

var (
	ErrInvalidHeight     = errors.New("Invalid Unlock Height")
	ErrEncodingFailure   = errors.New("Encoding Failure")
	ErrUnknownDigest     = errors.New("Unknown Digest")
	ErrNotTimeLockScript = errors.New("Not Time Lock Script")
	ErrInvalidCapsule    = errors.New("Invalid Capsule")
)

// Config selects the network, the digest, and the random source used to assemble capsules.
type Config struct {
	Net    bitcoin.Network
	Digest Digest
	Rand   io.Reader
}

// DefaultConfig returns main net with the double SHA256 digest and the system random source.
func DefaultConfig() Config {
	return Config{
		Net:    bitcoin.MainNet,
		Digest: DigestSha256d,
		Rand:   rand.Reader,
	}
}

// Capsule is a time locked P2SH address and the key needed to spend from it after the unlock
// height.
type Capsule struct {
	UnlockHeight int64  `json:"unlock_height"`
	Address      string `json:"address"`
	WIF          string `json:"wif"`
	RedeemScript string `json:"redeem_script"`
	Network      string `json:"network"`
	Digest       string `json:"digest"`
}

// Assemble generates a new key and builds the capsule locked until height. Either a complete
// capsule or an error is returned.
func Assemble(ctx context.Context, cfg Config, height int64) (*Capsule, error) {
	if height < 0 {
		return nil, errors.Wrap(ErrInvalidHeight, fmt.Sprintf("%d", height))
	}

	if cfg.Digest == nil {
		return nil, errors.Wrap(ErrUnknownDigest, "missing")
	}

	if cfg.Net != bitcoin.MainNet && cfg.Net != bitcoin.TestNet {
		return nil, errors.Wrap(ErrEncodingFailure, fmt.Sprintf("network %s", cfg.Net))
	}

	r := cfg.Rand
	if r == nil {
		r = rand.Reader
	}

	key, err := bitcoin.GenerateKey(r, cfg.Net)
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}

	pubKeyDigest := cfg.Digest.Hash(key.PublicKey().Bytes())

	script, err := BuildRedeemScript(height, cfg.Digest, pubKeyDigest)
	if err != nil {
		return nil, errors.Wrap(err, "redeem script")
	}

	address, err := EncodeAddress(script, cfg.Digest, cfg.Net)
	if err != nil {
		return nil, errors.Wrap(err, "address")
	}

	if err := checkRoundTrip(address, key); err != nil {
		return nil, err
	}

	logger.InfoWithFields(ctx, []logger.Field{
		logger.Uint64("unlock_height", uint64(height)),
		logger.String("address", address.String()),
		logger.String("network", cfg.Net.String()),
		logger.String("digest", cfg.Digest.Name()),
	}, "Assembled capsule")

	return &Capsule{
		UnlockHeight: height,
		Address:      address.String(),
		WIF:          key.String(),
		RedeemScript: script.String(),
		Network:      cfg.Net.String(),
		Digest:       cfg.Digest.Name(),
	}, nil
}

// checkRoundTrip verifies the address and WIF text decode back to the values they were encoded
// from.
func checkRoundTrip(address bitcoin.Address, key bitcoin.Key) error {
	decodedAddress, err := bitcoin.DecodeAddress(address.String())
	if err != nil {
		return errors.Wrap(ErrEncodingFailure, fmt.Sprintf("address round trip : %s", err))
	}

	if decodedAddress.Type() != address.Type() ||
		!bytes.Equal(decodedAddress.Hash(), address.Hash()) {
		return errors.Wrap(ErrEncodingFailure, "address round trip mismatch")
	}

	decodedKey, err := bitcoin.KeyFromStr(key.String())
	if err != nil {
		return errors.Wrap(ErrEncodingFailure, fmt.Sprintf("WIF round trip : %s", err))
	}

	if decodedKey.Network() != key.Network() || !decodedKey.PublicKey().Equal(key.PublicKey()) {
		return errors.Wrap(ErrEncodingFailure, "WIF round trip mismatch")
	}

	wif, err := bitcoin.EncodeWIF(decodedKey.Number(), decodedKey.Network())
	if err != nil {
		return errors.Wrap(ErrEncodingFailure, fmt.Sprintf("WIF re-encode : %s", err))
	}

	if wif != key.String() {
		return errors.Wrap(ErrEncodingFailure, "WIF re-encode mismatch")
	}

	return nil
}

// Validate re-derives the address from the redeem script and checks the key matches the digest
// locked in the script.
func (c Capsule) Validate() error {
	net := bitcoin.NetworkFromString(c.Network)
	if net == bitcoin.InvalidNet {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("network %s", c.Network))
	}

	digest, err := DigestFromName(c.Digest)
	if err != nil {
		return errors.Wrap(ErrInvalidCapsule, err.Error())
	}

	script, err := bitcoin.NewScriptFromStr(c.RedeemScript)
	if err != nil {
		return errors.Wrap(ErrInvalidCapsule, err.Error())
	}

	info, err := ParseRedeemScript(script)
	if err != nil {
		return errors.Wrap(ErrInvalidCapsule, err.Error())
	}

	if info.UnlockHeight != c.UnlockHeight {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("script height %d, capsule height %d",
			info.UnlockHeight, c.UnlockHeight))
	}

	if info.Digest != digest {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("script digest %s, capsule digest %s",
			info.Digest.Name(), digest.Name()))
	}

	address, err := EncodeAddress(script, digest, net)
	if err != nil {
		return errors.Wrap(ErrInvalidCapsule, err.Error())
	}

	if address.String() != c.Address {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("address %s, want %s", c.Address,
			address.String()))
	}

	key, err := bitcoin.KeyFromStr(c.WIF)
	if err != nil {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("WIF : %s", err))
	}

	if key.Network() != net {
		return errors.Wrap(ErrInvalidCapsule, fmt.Sprintf("WIF network %s", key.Network()))
	}

	if !bytes.Equal(digest.Hash(key.PublicKey().Bytes()), info.PubKeyDigest) {
		return errors.Wrap(ErrInvalidCapsule, "key doesn't match redeem script")
	}

	return nil
}

// Summary returns the text record of the capsule.
func (c Capsule) Summary() string {
	return fmt.Sprintf("Bitcoin Time Capsule\n"+
		"=========================\n"+
		"Unlock Block: %d\n"+
		"P2SH Address: %s\n"+
		"Address Digest: %s\n"+
		"Private Key (WIF): %s\n\n"+
		"Redeem Script (hex):\n%s\n", c.UnlockHeight, c.Address, describeDigest(c.Digest), c.WIF,
		c.RedeemScript)
}

// describeDigest names the digest behind the address. Only hash160 addresses are standard P2SH.
func describeDigest(name string) string {
	digest, err := DigestFromName(name)
	if err != nil {
		return name
	}

	if digest.Size() != bitcoin.Hash20Size {
		return fmt.Sprintf("%s (%d byte script hash, not standard P2SH)", digest.Name(),
			digest.Size())
	}

	return fmt.Sprintf("%s (standard P2SH)", digest.Name())
}
