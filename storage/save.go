package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
)

type Serializer interface {
	Serialize(io.Writer) error
}

type Deserializer interface {
	Deserialize(io.Reader) error
}

// Savable is the interface required for saving objects.
type Savable interface {
	Serializer
	Path() string
}

// Save serializes the object and writes it to the object's path.
func Save(ctx context.Context, store Writer, object Savable, options *Options) error {
	buf := &bytes.Buffer{}
	if err := object.Serialize(buf); err != nil {
		return errors.Wrap(err, "serialize")
	}

	if err := store.Write(ctx, object.Path(), buf.Bytes(), options); err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

// Load reads the data at path and deserializes it into the object.
func Load(ctx context.Context, store Reader, path string, object Deserializer) error {
	b, err := store.Read(ctx, path)
	if err != nil {
		return errors.Wrap(err, "read")
	}

	if err := object.Deserialize(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "deserialize")
	}

	return nil
}
