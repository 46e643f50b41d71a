package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

const (
	// S3ListLimit seems to need to be 1000. It is the default value according to the documentation,
	// but changing it doesn't seem to do anything. So we hard code it so it doesn't change on us.
	S3ListLimit = int64(1000)
)

// S3Storage implements the Storage interface for interacting with AWS S3.
type S3Storage struct {
	Config  Config
	Session *session.Session
}

// NewS3Storage creates a new S3Storage with a new aws.Session.
func NewS3Storage(config Config) S3Storage {
	return S3Storage{
		Config:  config,
		Session: newAWSSession(config),
	}
}

// NewS3StorageWithSession returns a new S3Storage with a given AWS Session.
func NewS3StorageWithSession(config Config, session *session.Session) S3Storage {
	return S3Storage{
		Config:  config,
		Session: session,
	}
}

// Write writes the data to the key in the S3 Bucket. A positive TTL sets the object's expiry.
func (s S3Storage) Write(ctx context.Context, key string, body []byte, options *Options) error {
	svc := s3.New(s.Session)

	return s.retry(ctx, "write", key, func() error {
		input := &s3.PutObjectInput{
			Bucket: aws.String(s.Config.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(body),
		}

		if options != nil && options.TTL > 0 {
			expiry := time.Now().Add(time.Duration(options.TTL) * time.Second)
			input.Expires = &expiry
		}

		_, err := svc.PutObjectWithContext(ctx, input)
		return err
	})
}

// Read will read the data from the S3 Bucket.
func (s S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	svc := s3.New(s.Session)

	var result []byte
	err := s.retry(ctx, "read", key, func() error {
		document, err := svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.Config.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer document.Body.Close()

		result, err = io.ReadAll(document.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Remove removes the object stored at key, in the S3 Bucket.
func (s S3Storage) Remove(ctx context.Context, key string) error {
	svc := s3.New(s.Session)

	return s.retry(ctx, "delete", key, func() error {
		_, err := svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.Config.Bucket),
			Key:    aws.String(key),
		})
		return err
	})
}

// List returns all paths that start with "path". If you want to list a specific directory then add
// a slash at the end, but then you still have to watch for sub-directories being listed.
func (s S3Storage) List(ctx context.Context, path string) ([]string, error) {
	var keys []string
	err := s.retry(ctx, "list", path, func() error {
		var err error
		keys, err = s.findKeys(ctx, path)
		return err
	})
	if errors.Cause(err) == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return keys, nil
}

func (s S3Storage) findKeys(ctx context.Context, path string) ([]string, error) {
	svc := s3.New(s.Session)
	var last *string
	var result []string
	limit := S3ListLimit

	for {
		out, err := svc.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:     aws.String(s.Config.Bucket),
			Prefix:     aws.String(path),
			MaxKeys:    &limit,
			StartAfter: last,
		})
		if err != nil {
			return nil, err
		}

		for _, o := range out.Contents {
			result = append(result, *o.Key)
		}

		l := len(out.Contents)
		if l != int(S3ListLimit) {
			// Contents not full, so we must be done.
			break
		}

		// Keep calling until the result is not full.
		newLast := *out.Contents[l-1].Key
		last = &newLast
	}

	return result, nil
}

// retry calls the function up to MaxRetries + 1 times, waiting RetryDelay between attempts. A
// missing key is returned immediately as ErrNotFound.
func (s S3Storage) retry(ctx context.Context, name, key string, f func() error) error {
	var err error
	for i := 0; i <= s.Config.MaxRetries; i++ {
		if i != 0 {
			select {
			case <-time.After(time.Duration(s.Config.RetryDelay) * time.Millisecond):
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "%s %s", name, key)
			}
		}

		err = f()
		if err == nil {
			return nil
		}

		if isNotFound(err) {
			return ErrNotFound
		}

		logger.Error(ctx, "S3CallFailed to %s %s : %s", name, key, err)
	}

	logger.Error(ctx, "S3CallAborted %s %s : %s", name, key, err)
	return errors.Wrapf(err, "%s %s", name, key)
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket:
			return true
		}
	}
	return false
}

// newAWSSession creates a new AWS Session. Credentials come from the environment.
func newAWSSession(config Config) *session.Session {
	awsConfig := aws.NewConfig()
	if len(config.Region) > 0 {
		awsConfig = awsConfig.WithRegion(config.Region)
	}
	return session.Must(session.NewSession(awsConfig))
}
