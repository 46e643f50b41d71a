package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

func Test_S3_ListLimit(t *testing.T) {
	t.Skip() // Must be run manually with a valid bucket name

	ctx := context.Background()
	store := NewS3Storage(Config{
		Bucket:     "s3-bucket-name",
		MaxRetries: 10,
		RetryDelay: 100,
	})

	counts := []int64{S3ListLimit / 2, S3ListLimit, S3ListLimit - 1, S3ListLimit + 1,
		S3ListLimit + (S3ListLimit / 2)}
	for _, count := range counts {
		path := fmt.Sprintf("test%d", count)
		keys := make([]string, count)

		// create objects
		for i := int64(0); i < count; i++ {
			key := fmt.Sprintf("%s/key%d", path, i)
			keys[i] = key
			if err := store.Write(ctx, key, []byte(key), nil); err != nil {
				t.Fatalf("Failed to write key %s : %s", key, err)
			}
		}

		t.Logf("Successfully wrote %d s3 items", count)

		// list objects
		list, err := store.List(ctx, path)
		if err != nil {
			t.Fatalf("Failed to list : %s", err)
		}

		if len(list) != int(count) {
			t.Fatalf("Wrong list length : got %d, want %d", len(list), count)
		}

		t.Logf("Successfully listed %d s3 items", count)
	}
}

func Test_S3_Retry(t *testing.T) {
	ctx := logger.ContextWithLogger(context.Background(), true, false, "")
	store := S3Storage{
		Config: Config{
			Bucket:     "s3-bucket-name",
			MaxRetries: 2,
			RetryDelay: 1,
		},
	}

	tests := []struct {
		name     string
		errs     []error
		attempts int
		err      error
	}{
		{
			name:     "first try",
			errs:     []error{nil},
			attempts: 1,
		},
		{
			name:     "second try",
			errs:     []error{errors.New("timeout"), nil},
			attempts: 2,
		},
		{
			name:     "not found",
			errs:     []error{awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)},
			attempts: 1,
			err:      ErrNotFound,
		},
		{
			name: "aborted",
			errs: []error{errors.New("timeout"), errors.New("timeout"),
				errors.New("timeout")},
			attempts: 3,
			err:      errors.New("timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := store.retry(ctx, "read", "key", func() error {
				result := tt.errs[attempts]
				attempts++
				return result
			})

			if attempts != tt.attempts {
				t.Errorf("Wrong attempts : got %d, want %d", attempts, tt.attempts)
			}

			if tt.err == nil {
				if err != nil {
					t.Fatalf("Failed : %s", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Succeeded")
			}

			if errors.Cause(err).Error() != tt.err.Error() {
				t.Fatalf("Wrong error : got %s, want %s", err, tt.err)
			}
		})
	}
}

func Test_S3_RetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(logger.ContextWithLogger(context.Background(), true,
		false, ""))
	store := S3Storage{
		Config: Config{
			MaxRetries: 5,
			RetryDelay: 60000,
		},
	}

	attempts := 0
	err := store.retry(ctx, "write", "key", func() error {
		attempts++
		cancel()
		return errors.New("timeout")
	})

	if errors.Cause(err) != context.Canceled {
		t.Fatalf("Wrong error : %v", err)
	}

	if attempts != 1 {
		t.Fatalf("Wrong attempts : %d", attempts)
	}
}
