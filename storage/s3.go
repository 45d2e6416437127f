package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// Objects above this size go through the multipart uploader instead of
// a single PutObject call
const minMultipartSize = 12 << 20

type S3 struct {
	c      *s3.Client
	bucket *string
}

func NewS3() (*S3, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("storage.s3.access_key_id"),
			viper.GetString("storage.s3.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("storage.s3.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("storage.s3.region")

		// Lets the same code talk to R2, MinIO and friends
		if endpoint := viper.GetString("storage.s3.endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
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

func (s *S3) Save(key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}

	var err error

	if size > minMultipartSize {
		uploader := manager.NewUploader(s.c, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(context.TODO(), input)
	} else {
		_, err = s.c.PutObject(context.TODO(), input)
	}

	if err != nil {
		return fmt.Errorf("failed to upload to s3, %w", err)
	}

	return nil
}

func (s *S3) Open(key string) (io.ReadCloser, error) {
	out, err := s.c.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from s3, %w", err)
	}

	return out.Body, nil
}

func (s *S3) Delete(key string) error {
	_, err := s.c.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3, %w", err)
	}

	return nil
}
