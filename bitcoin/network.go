package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	btcdwire "github.com/btcsuite/btcd/wire"
)

// Network identifies the chain a key or address belongs to. The value is the network's message
// start bytes.
type Network uint32

const (
	MainNet    = Network(btcdwire.MainNet)
	TestNet    = Network(btcdwire.TestNet3)
	InvalidNet = Network(0x00000000)
)

func NetworkFromString(name string) Network {
	switch strings.ToLower(name) {
	case "mainnet", "main":
		return MainNet
	case "testnet", "test", "testnet3":
		return TestNet
	}

	return InvalidNet
}

func NetworkName(net Network) string {
	switch net {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	}

	return "invalid"
}

func (n Network) String() string {
	return NetworkName(n)
}

// Params returns the btcd chain parameters for the network. They hold the version bytes used in
// Base58Check encodings.
func (n Network) Params() *chaincfg.Params {
	if n == MainNet {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}

// PrivateKeyVersion returns the WIF version byte. 0x80 on main net.
func (n Network) PrivateKeyVersion() byte {
	return n.Params().PrivateKeyID
}

// ScriptHashVersion returns the P2SH address version byte. 0x05 on main net.
func (n Network) ScriptHashVersion() byte {
	return n.Params().ScriptHashAddrID
}

// PubKeyHashVersion returns the P2PKH address version byte. 0x00 on main net.
func (n Network) PubKeyHashVersion() byte {
	return n.Params().PubKeyHashAddrID
}

// MarshalText returns the text encoding of the network.
// Implements encoding.TextMarshaler interface.
func (n Network) MarshalText() ([]byte, error) {
	return []byte(NetworkName(n)), nil
}

// UnmarshalText parses a network name.
// Implements encoding.TextUnmarshaler interface.
func (n *Network) UnmarshalText(text []byte) error {
	net := NetworkFromString(string(text))
	if net == InvalidNet {
		return fmt.Errorf("Unknown network : %s", string(text))
	}

	*n = net
	return nil
}
