package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// S3 stores blobs in a bucket. Usable with any S3-compatible endpoint
// (AWS, R2, minio) via s3.endpoint.
type S3 struct {
	c      *s3.Client
	bucket *string
}

func NewS3() (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("s3.access_key_id"),
			viper.GetString("s3.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("s3.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("s3.region")

		if ep := viper.GetString("s3.endpoint"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3{
		c:      client,
		bucket: bucket,
	}, nil
}

func (s *S3) Write(name string, r io.Reader) (int64, error) {
	// Count while uploading so the caller gets the stored size back
	cr := &countingReader{r: r}

	u := manager.NewUploader(s.c, func(u *manager.Uploader) {
		u.Concurrency = 5
		u.PartSize = 5 << 20
	})

	_, err := u.Upload(context.TODO(), &s3.PutObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(name),
		Body:   cr,
	})
	if err != nil {
		// The manager aborts the multipart upload itself, nothing partial
		// is left under the key
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return cr.n, nil
}

func (s *S3) Read(name string) (io.ReadCloser, error) {
	out, err := s.c.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return out.Body, nil
}

func (s *S3) Delete(name string) error {
	// S3 DeleteObject on a missing key already succeeds, which matches the
	// idempotency we want
	_, err := s.c.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

func (s *S3) Exists(name string) (bool, error) {
	_, err := s.c.HeadObject(context.TODO(), &s3.HeadObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return true, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}

	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
