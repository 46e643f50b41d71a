package bitcoin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	OP_FALSE               = 0x00
	OP_PUSH_DATA_20        = 0x14
	OP_PUSH_DATA_32        = 0x20
	OP_1NEGATE             = 0x4f
	OP_RESERVED            = 0x50
	OP_1                   = 0x51
	OP_16                  = 0x60
	OP_DROP                = 0x75
	OP_DUP                 = 0x76
	OP_EQUAL               = 0x87
	OP_EQUALVERIFY         = 0x88
	OP_HASH160             = 0xa9
	OP_HASH256             = 0xaa
	OP_CHECKSIG            = 0xac
	OP_CHECKLOCKTIMEVERIFY = 0xb1

	// OP_MAX_SINGLE_BYTE_PUSH_DATA represents the max length for a single byte push
	OP_MAX_SINGLE_BYTE_PUSH_DATA = byte(0x4b)

	// OP_PUSH_DATA_1 represent the OP_PUSHDATA1 opcode.
	OP_PUSH_DATA_1 = byte(0x4c)

	// OP_PUSH_DATA_2 represents the OP_PUSHDATA2 opcode.
	OP_PUSH_DATA_2 = byte(0x4d)

	// OP_PUSH_DATA_4 represents the OP_PUSHDATA4 opcode.
	OP_PUSH_DATA_4 = byte(0x4e)

	// OP_PUSH_DATA_1_MAX is the maximum number of bytes that can be used in the
	// OP_PUSHDATA1 opcode.
	OP_PUSH_DATA_1_MAX = uint64(255)

	// OP_PUSH_DATA_2_MAX is the maximum number of bytes that can be used in the
	// OP_PUSHDATA2 opcode.
	OP_PUSH_DATA_2_MAX = uint64(65535)

	// smallNumberMax is the largest value pushed with a single op code.
	smallNumberMax = 16
)

var (
	endian = binary.LittleEndian

	ErrNotPushOp       = errors.New("Not Push Op")
	ErrNotNumberPushOp = errors.New("Not Number Push Op")

	opCodeNames = map[byte]string{
		OP_FALSE:               "OP_0",
		OP_1NEGATE:             "OP_1NEGATE",
		OP_RESERVED:            "OP_RESERVED",
		OP_DROP:                "OP_DROP",
		OP_DUP:                 "OP_DUP",
		OP_EQUAL:               "OP_EQUAL",
		OP_EQUALVERIFY:         "OP_EQUALVERIFY",
		OP_HASH160:             "OP_HASH160",
		OP_HASH256:             "OP_HASH256",
		OP_CHECKSIG:            "OP_CHECKSIG",
		OP_CHECKLOCKTIMEVERIFY: "OP_CHECKLOCKTIMEVERIFY",
	}
)

// Script is a raw bitcoin script.
type Script []byte

// NewScriptFromStr decodes a script from hex text.
func NewScriptFromStr(s string) (Script, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, "hex")
	}

	return Script(b), nil
}

// String returns the hex encoding of the script.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// Bytes returns a copy of the raw script.
func (s Script) Bytes() []byte {
	return append([]byte(nil), s...)
}

// Equal returns true if the scripts are byte equal.
func (s Script) Equal(o Script) bool {
	return bytes.Equal(s, o)
}

// Text returns a human readable disassembly of the script. Pushed data is shown as hex and single
// byte number op codes as OP_N.
func (s Script) Text() (string, error) {
	buf := bytes.NewReader(s)
	var parts []string
	for buf.Len() > 0 {
		opCode, data, err := ParsePushDataScript(buf)
		if err == nil {
			if opCode >= OP_1 && opCode <= OP_16 {
				parts = append(parts, fmt.Sprintf("OP_%d", opCode-OP_RESERVED))
			} else if len(data) == 0 {
				parts = append(parts, opCodeName(opCode))
			} else {
				parts = append(parts, hex.EncodeToString(data))
			}
			continue
		}

		if errors.Cause(err) != ErrNotPushOp {
			return "", err
		}

		parts = append(parts, opCodeName(opCode))
	}

	return strings.Join(parts, " "), nil
}

func opCodeName(opCode byte) string {
	if name, ok := opCodeNames[opCode]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN_0x%02x", opCode)
}

// PushUnsignedNumberScript returns a section of script that pushes a non-negative number.
// Values 0 through 16 use the single byte op code 0x50 + n. Larger values are pushed as the
// minimal little endian byte string preceded by its length. No sign byte is added.
// Example encodings:
//        16 -> [0x60]
//        17 -> [0x01 0x11]
//       255 -> [0x01 0xff]
//       256 -> [0x02 0x00 0x01]
//    500000 -> [0x03 0x20 0xa1 0x07]
func PushUnsignedNumberScript(n uint64) []byte {
	if n <= smallNumberMax {
		return []byte{OP_RESERVED + byte(n)}
	}

	result := make([]byte, 1, 9)
	for n > 0 {
		result = append(result, byte(n&0xff))
		n >>= 8
	}
	result[0] = byte(len(result) - 1)

	return result
}

// ParseUnsignedNumberScript reads a number written by PushUnsignedNumberScript. It returns the
// value and the number of script bytes used.
func ParseUnsignedNumberScript(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, errors.New("Script empty")
	}

	if b[0] >= OP_RESERVED && b[0] <= OP_16 {
		return uint64(b[0] - OP_RESERVED), 1, nil
	}

	length := int(b[0])
	if length == 0 || length > 8 {
		return 0, 0, errors.Wrap(ErrNotNumberPushOp, fmt.Sprintf("op code 0x%02x", b[0]))
	}
	if len(b) < length+1 {
		return 0, 0, fmt.Errorf("Number push past end of script : %d/%d", length, len(b)-1)
	}

	// Decode from little endian.
	var result uint64
	for i, val := range b[1 : length+1] {
		result |= uint64(val) << uint8(8*i)
	}

	return result, length + 1, nil
}

// WritePushDataScript writes a push data bitcoin script including the encoded size preceding it.
func WritePushDataScript(buf *bytes.Buffer, data []byte) error {
	size := len(data)
	var err error
	if size <= int(OP_MAX_SINGLE_BYTE_PUSH_DATA) {
		_, err = buf.Write([]byte{byte(size)}) // Single byte push
	} else if size < int(OP_PUSH_DATA_1_MAX) {
		_, err = buf.Write([]byte{OP_PUSH_DATA_1, byte(size)})
	} else if size < int(OP_PUSH_DATA_2_MAX) {
		_, err = buf.Write([]byte{OP_PUSH_DATA_2})
		if err != nil {
			return err
		}
		err = binary.Write(buf, endian, uint16(size))
	} else {
		_, err = buf.Write([]byte{OP_PUSH_DATA_4})
		if err != nil {
			return err
		}
		err = binary.Write(buf, endian, uint32(size))
	}
	if err != nil {
		return err
	}

	_, err = buf.Write(data)
	return err
}

// ParsePushDataScript will parse a bitcoin script for the next "object". It will return the next
//   op code, and if that op code is a push data op code, it will return the data.
// A bytes.Reader object is needed to check the size against the remaining length before allocating
//   the memory to store the push.
func ParsePushDataScript(buf *bytes.Reader) (uint8, []byte, error) {
	var opCode byte
	err := binary.Read(buf, endian, &opCode)
	if err != nil {
		return 0, nil, err
	}

	isPushOp := false
	dataSize := 0
	if opCode <= OP_MAX_SINGLE_BYTE_PUSH_DATA {
		isPushOp = true
		dataSize = int(opCode)
	} else if opCode >= OP_1 && opCode <= OP_16 {
		return opCode, []byte{opCode - OP_RESERVED}, nil
	} else if opCode == OP_1NEGATE {
		return opCode, []byte{0xff}, nil
	} else {
		switch opCode {
		case OP_PUSH_DATA_1:
			var size uint8
			if err := binary.Read(buf, endian, &size); err != nil {
				return 0, nil, err
			}
			isPushOp = true
			dataSize = int(size)
		case OP_PUSH_DATA_2:
			var size uint16
			if err := binary.Read(buf, endian, &size); err != nil {
				return 0, nil, err
			}
			isPushOp = true
			dataSize = int(size)
		case OP_PUSH_DATA_4:
			var size uint32
			if err := binary.Read(buf, endian, &size); err != nil {
				return 0, nil, err
			}
			isPushOp = true
			dataSize = int(size)
		}
	}

	if !isPushOp {
		return opCode, nil, ErrNotPushOp
	}
	if dataSize == 0 {
		return opCode, nil, nil
	}

	if dataSize > buf.Len() { // Check this to prevent trying to allocate a large amount.
		return 0, nil, fmt.Errorf("Push data size past end of script : %d/%d", dataSize, buf.Len())
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(buf, data); err != nil {
		return 0, nil, err
	}
	return opCode, data, nil
}
