package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Vikkingg13/BitCapsule/capsule"
	"github.com/Vikkingg13/BitCapsule/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

const (
	capsulesPath   = "capsules"
	recordFileName = "capsule.json"
	zipFileName    = "capsule.zip"
)

var (
	ErrInvalidID = errors.New("Invalid Capsule ID")
)

// Record is a stored capsule.
type Record struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Capsule   *capsule.Capsule `json:"capsule"`
}

func RecordPath(id string) string {
	return fmt.Sprintf("%s/%s/%s", capsulesPath, id, recordFileName)
}

func ZipPath(id string) string {
	return fmt.Sprintf("%s/%s/%s", capsulesPath, id, zipFileName)
}

func (r Record) Path() string {
	return RecordPath(r.ID)
}

func (r Record) Serialize(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func (r *Record) Deserialize(rd io.Reader) error {
	return json.NewDecoder(rd).Decode(r)
}

// Save writes the capsule record and the zip of its bundle under a new id, which is returned.
// Both are written readable only by the owner since they contain the private key.
func Save(ctx context.Context, store storage.Writer, c *capsule.Capsule) (string, error) {
	files, err := Bundle(ctx, c)
	if err != nil {
		return "", errors.Wrap(err, "bundle")
	}

	archive, err := Zip(files)
	if err != nil {
		return "", errors.Wrap(err, "zip")
	}

	record := &Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Capsule:   c,
	}

	options := storage.NewPrivateOptions()
	if err := storage.Save(ctx, store, record, &options); err != nil {
		return "", errors.Wrap(err, "save record")
	}

	if err := store.Write(ctx, ZipPath(record.ID), archive, &options); err != nil {
		return "", errors.Wrap(err, "save zip")
	}

	logger.InfoWithFields(ctx, []logger.Field{
		logger.String("capsule_id", record.ID),
		logger.String("address", c.Address),
		logger.Uint64("unlock_height", uint64(c.UnlockHeight)),
	}, "Saved capsule")

	return record.ID, nil
}

// Load reads and validates a stored capsule record.
func Load(ctx context.Context, store storage.Reader, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(ErrInvalidID, id)
	}

	record := &Record{}
	if err := storage.Load(ctx, store, RecordPath(id), record); err != nil {
		return nil, errors.Wrapf(err, "load %s", id)
	}

	if record.Capsule == nil {
		return nil, errors.Wrap(capsule.ErrInvalidCapsule, "missing")
	}

	if err := record.Capsule.Validate(); err != nil {
		return nil, errors.Wrapf(err, "capsule %s", id)
	}

	return record, nil
}

// LoadZip returns the stored zip of the capsule's bundle.
func LoadZip(ctx context.Context, store storage.Reader, id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(ErrInvalidID, id)
	}

	b, err := store.Read(ctx, ZipPath(id))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", id)
	}

	return b, nil
}

// List returns the ids of the stored capsules in sorted order.
func List(ctx context.Context, store storage.List) ([]string, error) {
	keys, err := store.List(ctx, capsulesPath+"/")
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}

	var ids []string
	for _, key := range keys {
		parts := strings.Split(key, "/")
		if len(parts) != 3 || parts[2] != recordFileName {
			continue
		}
		ids = append(ids, parts[1])
	}
	sort.Strings(ids)

	return ids, nil
}
