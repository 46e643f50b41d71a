package bitcoin

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

func TestBase58Check(t *testing.T) {
	tests := []struct {
		version byte
		payload string
		want    string
	}{
		{
			version: 0x00,
			payload: "0000000000000000000000000000000000000000",
			want:    "1111111111111111111114oLvT2",
		},
		{
			version: 0x00,
			payload: "4974a24418c676add75fc291fccf3e2253ceb21d",
			want:    "17hQ3sDD7yPNZ6Yjx4vMbkw5a14MhBf4wm",
		},
		{
			version: 0x80,
			payload: "0c28fca386c7a227600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d",
			want:    "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
		},
		{
			version: 0x80,
			payload: "000000ff",
			want:    "2dVseXYu17RBf",
		},
		{
			version: 0x05,
			payload: "",
			want:    "dDc8z6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			payload, err := hex.DecodeString(tt.payload)
			if err != nil {
				t.Fatal(err)
			}

			got := Base58CheckEncode(tt.version, payload)
			if got != tt.want {
				t.Fatalf("Wrong encoding : got %s, want %s", got, tt.want)
			}

			version, decoded, err := Base58CheckDecode(got)
			if err != nil {
				t.Fatalf("Failed to decode : %s", err)
			}

			if version != tt.version {
				t.Errorf("Wrong version : got 0x%02x, want 0x%02x", version, tt.version)
			}

			if !bytes.Equal(decoded, payload) {
				t.Errorf("Wrong payload : got %x, want %x", decoded, payload)
			}
		})
	}
}

func TestBase58LeadingZeros(t *testing.T) {
	b := []byte{0x00, 0x00, 0x01, 0x02, 0x03}

	got := Base58(b)
	if got != "11Ldp" {
		t.Fatalf("Wrong encoding : got %s, want %s", got, "11Ldp")
	}

	// Independent implementation
	if other := base58.Encode(b); other != got {
		t.Fatalf("Encoding doesn't match mr-tron/base58 : got %s, want %s", got, other)
	}

	decoded, err := Base58Decode(got)
	if err != nil {
		t.Fatalf("Failed to decode : %s", err)
	}

	if !bytes.Equal(decoded, b) {
		t.Fatalf("Wrong decode : got %x, want %x", decoded, b)
	}
}

func TestBase58CheckRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(58))

	for i := 0; i < 200; i++ {
		payload := make([]byte, rng.Intn(80))
		rng.Read(payload)
		// Exercise leading zero handling
		for j := 0; j < len(payload) && j < i%4; j++ {
			payload[j] = 0
		}
		version := byte(rng.Intn(256))

		s := Base58CheckEncode(version, payload)

		var raw []byte
		raw = append(raw, version)
		raw = append(raw, payload...)
		raw = append(raw, DoubleSha256(raw)[:4]...)
		if other := base58.Encode(raw); other != s {
			t.Fatalf("Encoding doesn't match mr-tron/base58 : got %s, want %s", s, other)
		}

		gotVersion, gotPayload, err := Base58CheckDecode(s)
		if err != nil {
			t.Fatalf("Failed to decode %s : %s", s, err)
		}

		if gotVersion != version || !bytes.Equal(gotPayload, payload) {
			t.Fatalf("Round trip mismatch : got 0x%02x %x, want 0x%02x %x", gotVersion, gotPayload,
				version, payload)
		}
	}
}

func TestBase58CheckCorruption(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{
			name: "first char",
			text: "6HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
			err:  ErrInvalidChecksum,
		},
		{
			name: "second char",
			text: "5JueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
			err:  ErrInvalidChecksum,
		},
		{
			name: "middle char",
			text: "5HueCGU8rMzxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
			err:  ErrInvalidChecksum,
		},
		{
			name: "middle char to one",
			text: "5HueCGU8rMjxEXxiPuD5BDku41kFqeZyd4dZ1jvhTVqvbTLvyTJ",
			err:  ErrInvalidChecksum,
		},
		{
			name: "last char",
			text: "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTK",
			err:  ErrInvalidChecksum,
		},
		{
			name: "address first char",
			text: "2BY6cjNXRDkidVLUoroVLTRXwcUagTec1A",
			err:  ErrInvalidChecksum,
		},
		{
			name: "address last char",
			text: "3BY6cjNXRDkidVLUoroVLTRXwcUagTec1B",
			err:  ErrInvalidChecksum,
		},
		{
			name: "zero char",
			text: "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvy0J",
			err:  ErrInvalidCharacter,
		},
		{
			name: "capital O",
			text: "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyOJ",
			err:  ErrInvalidCharacter,
		},
		{
			name: "lower l",
			text: "l7hQ3sDD7yPNZ6Yjx4vMbkw5a14MhBf4wm",
			err:  ErrInvalidCharacter,
		},
		{
			name: "too short",
			text: "1111",
			err:  ErrInvalidChecksum,
		},
		{
			name: "empty",
			text: "",
			err:  ErrInvalidChecksum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Base58CheckDecode(tt.text)
			if err == nil {
				t.Fatalf("Decode succeeded for corrupt text %s", tt.text)
			}

			if errors.Cause(err) != tt.err {
				t.Fatalf("Wrong error : got %s, want %s", err, tt.err)
			}
		})
	}
}
