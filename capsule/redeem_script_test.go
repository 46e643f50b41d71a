package capsule

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Vikkingg13/BitCapsule/bitcoin"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

func TestBuildRedeemScript(t *testing.T) {
	hash160Digest, _ := hex.DecodeString("a65d1a239d4ec666643d350c7bb8fc44d2881128")
	sha256dDigest, _ := hex.DecodeString(testLockHash)

	tests := []struct {
		name         string
		height       int64
		digest       Digest
		pubKeyDigest []byte
		want         string
	}{
		{
			name:         "hash160",
			height:       testHeight,
			digest:       DigestHash160,
			pubKeyDigest: hash160Digest,
			want:         "030ca314b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:         "sha256d",
			height:       testHeight,
			digest:       DigestSha256d,
			pubKeyDigest: sha256dDigest,
			want:         "030ca314b17576aa20" + testLockHash + "88ac",
		},
		{
			name:         "height zero",
			height:       0,
			digest:       DigestHash160,
			pubKeyDigest: hash160Digest,
			want:         "50b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:         "height 16",
			height:       16,
			digest:       DigestHash160,
			pubKeyDigest: hash160Digest,
			want:         "60b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:         "height 17",
			height:       17,
			digest:       DigestHash160,
			pubKeyDigest: hash160Digest,
			want:         "0111b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:         "height 500000",
			height:       500000,
			digest:       DigestSha256d,
			pubKeyDigest: sha256dDigest,
			want:         "0320a107b17576aa20" + testLockHash + "88ac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := BuildRedeemScript(tt.height, tt.digest, tt.pubKeyDigest)
			if err != nil {
				t.Fatalf("Failed to build script : %s", err)
			}

			if script.String() != tt.want {
				t.Fatalf("Wrong script\ngot:%s\nwant:%s", script.String(), tt.want)
			}

			info, err := ParseRedeemScript(script)
			if err != nil {
				t.Fatalf("Failed to parse script : %s", err)
			}

			if info.UnlockHeight != tt.height {
				t.Errorf("Wrong height : got %d, want %d", info.UnlockHeight, tt.height)
			}

			if info.Digest != tt.digest {
				t.Errorf("Wrong digest : got %s, want %s", info.Digest.Name(), tt.digest.Name())
			}

			if !bytes.Equal(info.PubKeyDigest, tt.pubKeyDigest) {
				t.Errorf("Wrong public key digest\ngot:%x\nwant:%x", info.PubKeyDigest,
					tt.pubKeyDigest)
			}
		})
	}
}

func TestBuildRedeemScriptErrors(t *testing.T) {
	tests := []struct {
		name         string
		height       int64
		digest       Digest
		pubKeyDigest []byte
		err          error
	}{
		{
			name:         "negative height",
			height:       -1,
			digest:       DigestHash160,
			pubKeyDigest: make([]byte, 20),
			err:          ErrInvalidHeight,
		},
		{
			name:         "negative height bad digest",
			height:       -500000,
			digest:       DigestHash160,
			pubKeyDigest: nil,
			err:          ErrInvalidHeight,
		},
		{
			name:         "long digest for hash160",
			height:       100,
			digest:       DigestHash160,
			pubKeyDigest: make([]byte, 32),
			err:          ErrEncodingFailure,
		},
		{
			name:         "short digest for sha256d",
			height:       100,
			digest:       DigestSha256d,
			pubKeyDigest: make([]byte, 20),
			err:          ErrEncodingFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := BuildRedeemScript(tt.height, tt.digest, tt.pubKeyDigest)
			if err == nil {
				t.Fatalf("Build succeeded : %s", script)
			}

			if errors.Cause(err) != tt.err {
				t.Fatalf("Wrong error : got %s, want %s", err, tt.err)
			}
		})
	}
}

// Heights whose top byte is below 0x80 need no sign byte, so they match the script number
// encoding.
func TestRedeemScriptHeightMatchesScriptNumber(t *testing.T) {
	heights := []int64{1, 2, 10, 16, 17, 100, 127, 1000, 32767, 500000, testHeight, 8388607,
		1000000000}

	for _, height := range heights {
		want, err := txscript.NewScriptBuilder().AddInt64(height).Script()
		if err != nil {
			t.Fatalf("Failed to build script number : %s", err)
		}

		got := bitcoin.PushUnsignedNumberScript(uint64(height))
		if !bytes.Equal(got, want) {
			t.Errorf("Height %d push\ngot:%x\nwant:%x", height, got, want)
		}
	}
}

func TestParseRedeemScriptInvalid(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{
			name:   "empty",
			script: "",
		},
		{
			name:   "p2pkh",
			script: "76a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:   "missing drop",
			script: "030ca314b176a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:   "wrong hash op",
			script: "030ca314b17576a814a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:   "hash256 with short push",
			script: "030ca314b17576aa14a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:   "truncated digest",
			script: "030ca314b17576a914a65d1a239d4ec666",
		},
		{
			name:   "missing checksig",
			script: "030ca314b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888",
		},
		{
			name:   "trailing data",
			script: "030ca314b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac00",
		},
		{
			name:   "non-minimal height",
			script: "0110b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
		{
			name:   "zero padded height",
			script: "040ca31400b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := bitcoin.NewScriptFromStr(tt.script)
			if err != nil {
				t.Fatal(err)
			}

			_, err = ParseRedeemScript(script)
			if err == nil {
				t.Fatalf("Parse succeeded")
			}

			if errors.Cause(err) != ErrNotTimeLockScript {
				t.Fatalf("Wrong error : got %s, want %s", err, ErrNotTimeLockScript)
			}
		})
	}
}

func TestEncodeAddress(t *testing.T) {
	tests := []struct {
		name   string
		script string
		digest Digest
		net    bitcoin.Network
		want   string
	}{
		{
			name:   "main sha256d",
			script: "030ca314b17576aa20" + testLockHash + "88ac",
			digest: DigestSha256d,
			net:    bitcoin.MainNet,
			want:   "By64e3ZogrCFZoSmxRnnyQUdToc8Yv3WVbKBMmiPHQMA21N9ht",
		},
		{
			name:   "test sha256d",
			script: "030ca314b17576aa20" + testLockHash + "88ac",
			digest: DigestSha256d,
			net:    bitcoin.TestNet,
			want:   "7bFGkvmfZx2T1Fo9vfydyDvPYFRmJ3sHoa7smy9wFSgRQnf6byr",
		},
		{
			name:   "main hash160",
			script: "030ca314b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
			digest: DigestHash160,
			net:    bitcoin.MainNet,
			want:   "3BY6cjNXRDkidVLUoroVLTRXwcUagTec1A",
		},
		{
			name:   "test hash160",
			script: "030ca314b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
			digest: DigestHash160,
			net:    bitcoin.TestNet,
			want:   "2N36JgUJZ2gG4qGy2UzRMxQQo9xgkXSkDzh",
		},
		{
			name:   "main hash160 500000",
			script: "0320a107b17576a914a65d1a239d4ec666643d350c7bb8fc44d288112888ac",
			digest: DigestHash160,
			net:    bitcoin.MainNet,
			want:   "38tnGHqWvMddLCoqZJcxifiqvR8um3kUuN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := bitcoin.NewScriptFromStr(tt.script)
			if err != nil {
				t.Fatal(err)
			}

			address, err := EncodeAddress(script, tt.digest, tt.net)
			if err != nil {
				t.Fatalf("Failed to encode address : %s", err)
			}

			if address.String() != tt.want {
				t.Fatalf("Wrong address\ngot:%s\nwant:%s", address.String(), tt.want)
			}

			if !address.IsScriptHash() {
				t.Errorf("Address is not script hash")
			}

			if address.Network() != tt.net {
				t.Errorf("Wrong address network : %s", address.Network())
			}

			if tt.digest != DigestHash160 {
				return
			}

			// Standard P2SH matches an independent implementation.
			ext, err := btcutil.NewAddressScriptHash(script, tt.net.Params())
			if err != nil {
				t.Fatalf("Failed to create ext address : %s", err)
			}

			if ext.EncodeAddress() != address.String() {
				t.Errorf("Ext address\ngot:%s\nwant:%s", address.String(), ext.EncodeAddress())
			}
		})
	}
}

func TestEncodeAddressDistinct(t *testing.T) {
	pubKeyDigest, _ := hex.DecodeString(testLockHash)

	seen := make(map[string]int64)
	for _, height := range []int64{0, 1, 16, 17, 255, 256, 500000, testHeight} {
		script, err := BuildRedeemScript(height, DigestSha256d, pubKeyDigest)
		if err != nil {
			t.Fatalf("Failed to build script : %s", err)
		}

		first, err := EncodeAddress(script, DigestSha256d, bitcoin.MainNet)
		if err != nil {
			t.Fatalf("Failed to encode address : %s", err)
		}

		second, err := EncodeAddress(script, DigestSha256d, bitcoin.MainNet)
		if err != nil {
			t.Fatalf("Failed to encode address : %s", err)
		}

		if first.String() != second.String() {
			t.Fatalf("Address not deterministic : %s, %s", first.String(), second.String())
		}

		if other, exists := seen[first.String()]; exists {
			t.Fatalf("Heights %d and %d have the same address", other, height)
		}
		seen[first.String()] = height
	}
}

func TestDigestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Digest
		size int
		op   byte
	}{
		{"sha256d", DigestSha256d, 32, 0xaa},
		{"SHA256D", DigestSha256d, 32, 0xaa},
		{"hash160", DigestHash160, 20, 0xa9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := DigestFromName(tt.name)
			if err != nil {
				t.Fatalf("Failed to get digest : %s", err)
			}

			if digest != tt.want {
				t.Fatalf("Wrong digest : %s", digest.Name())
			}

			if digest.Size() != tt.size || digest.HashOp() != tt.op {
				t.Fatalf("Wrong digest parameters : %d 0x%02x", digest.Size(), digest.HashOp())
			}

			if len(digest.Hash([]byte("capsule"))) != tt.size {
				t.Fatalf("Wrong hash size : %d", len(digest.Hash([]byte("capsule"))))
			}
		})
	}

	if _, err := DigestFromName("sha512"); errors.Cause(err) != ErrUnknownDigest {
		t.Fatalf("Wrong error for unknown digest : %v", err)
	}
}
