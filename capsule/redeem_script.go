package capsule

import (
	"bytes"
	"fmt"

	"github.com/Vikkingg13/BitCapsule/bitcoin"

	"github.com/pkg/errors"
)

// RedeemScriptInfo is the content of a time locked redeem script.
type RedeemScriptInfo struct {
	UnlockHeight int64
	Digest       Digest
	PubKeyDigest []byte
}

// BuildRedeemScript returns the redeem script that locks funds until the block height and then
// requires a signature from the key whose public key reduces to pubKeyDigest.
//
//	<height> OP_CHECKLOCKTIMEVERIFY OP_DROP OP_DUP <hash op> <digest> OP_EQUALVERIFY OP_CHECKSIG
//
// The height is pushed by bitcoin.PushUnsignedNumberScript.
func BuildRedeemScript(height int64, digest Digest, pubKeyDigest []byte) (bitcoin.Script, error) {
	if height < 0 {
		return nil, errors.Wrap(ErrInvalidHeight, fmt.Sprintf("%d", height))
	}

	if len(pubKeyDigest) != digest.Size() {
		return nil, errors.Wrap(ErrEncodingFailure,
			fmt.Sprintf("%s public key digest size %d, want %d", digest.Name(), len(pubKeyDigest),
				digest.Size()))
	}

	buf := &bytes.Buffer{}
	buf.Write(bitcoin.PushUnsignedNumberScript(uint64(height)))
	buf.Write([]byte{bitcoin.OP_CHECKLOCKTIMEVERIFY, bitcoin.OP_DROP, bitcoin.OP_DUP,
		digest.HashOp()})

	if err := bitcoin.WritePushDataScript(buf, pubKeyDigest); err != nil {
		return nil, errors.Wrap(ErrEncodingFailure, err.Error())
	}

	buf.Write([]byte{bitcoin.OP_EQUALVERIFY, bitcoin.OP_CHECKSIG})

	return bitcoin.Script(buf.Bytes()), nil
}

// ParseRedeemScript reverses BuildRedeemScript. Scripts that BuildRedeemScript would not produce
// byte for byte return ErrNotTimeLockScript.
func ParseRedeemScript(script bitcoin.Script) (*RedeemScriptInfo, error) {
	height, offset, err := bitcoin.ParseUnsignedNumberScript(script)
	if err != nil {
		return nil, errors.Wrap(ErrNotTimeLockScript, err.Error())
	}

	rest := script[offset:]
	if len(rest) < 5 || !bytes.Equal(rest[:3], []byte{bitcoin.OP_CHECKLOCKTIMEVERIFY,
		bitcoin.OP_DROP, bitcoin.OP_DUP}) {
		return nil, errors.Wrap(ErrNotTimeLockScript, "missing lock time verify")
	}

	hashOp := rest[3]
	size := int(rest[4])
	digest, ok := digestForOp(hashOp, size)
	if !ok {
		return nil, errors.Wrap(ErrNotTimeLockScript,
			fmt.Sprintf("unsupported hash op 0x%02x with push %d", hashOp, size))
	}

	rest = rest[5:]
	if len(rest) < size {
		return nil, errors.Wrap(ErrNotTimeLockScript, "digest past end of script")
	}

	result := &RedeemScriptInfo{
		UnlockHeight: int64(height),
		Digest:       digest,
		PubKeyDigest: append([]byte(nil), rest[:size]...),
	}

	// Rebuild to reject non-minimal heights and trailing data.
	rebuilt, err := BuildRedeemScript(result.UnlockHeight, digest, result.PubKeyDigest)
	if err != nil {
		return nil, errors.Wrap(ErrNotTimeLockScript, err.Error())
	}
	if !rebuilt.Equal(script) {
		return nil, errors.Wrap(ErrNotTimeLockScript, "non-standard encoding")
	}

	return result, nil
}
