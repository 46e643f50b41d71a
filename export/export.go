package export

import (
	"archive/zip"
	"bytes"
	"context"
	"sort"

	"github.com/Vikkingg13/BitCapsule/capsule"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"github.com/tokenized/logger"
)

const (
	InfoFileName      = "capsule_info.txt"
	AddressQRFileName = "p2sh_address_qr.png"
	KeyQRFileName     = "private_key_qr.png"

	// QRSize is the width and height of the QR code images in pixels.
	QRSize = 256
)

// Bundle returns the files given to the owner of a capsule: the text summary and QR codes of the
// P2SH address and the WIF private key.
func Bundle(ctx context.Context, c *capsule.Capsule) (map[string][]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	addressQR, err := qrcode.Encode(c.Address, qrcode.Medium, QRSize)
	if err != nil {
		return nil, errors.Wrap(err, "address qr")
	}

	keyQR, err := qrcode.Encode(c.WIF, qrcode.Medium, QRSize)
	if err != nil {
		return nil, errors.Wrap(err, "key qr")
	}

	files := map[string][]byte{
		InfoFileName:      []byte(c.Summary()),
		AddressQRFileName: addressQR,
		KeyQRFileName:     keyQR,
	}

	logger.Verbose(ctx, "Bundled %d capsule files for %s", len(files), c.Address)

	return files, nil
}

// Zip archives the files, in name order, into a zip file.
func Zip(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	for _, name := range names {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", name)
		}

		if _, err := f.Write(files[name]); err != nil {
			return nil, errors.Wrapf(err, "write %s", name)
		}
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close")
	}

	return buf.Bytes(), nil
}
