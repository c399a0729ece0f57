package sinks

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of *s3.Client the sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads backups to an S3 bucket.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink loads the default AWS configuration for region and returns a sink
// writing to bucket under prefix.
func NewS3Sink(ctx context.Context, bucket, prefix, region string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 sink needs [sinks.s3] bucket", kerrors.ErrInvalidConfig)
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3SinkWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

// NewS3SinkWithClient returns a sink using an existing client.
func NewS3SinkWithClient(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Name() string { return S3SinkName }

// Deliver uploads data as bucket/prefix/name and returns its s3:// URL.
func (s *S3Sink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	defer timed(S3SinkName, time.Now())

	key := path.Join(s.prefix, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: S3 PutObject failed: %v", kerrors.ErrDeliveryFailed, err)
	}

	return "s3://" + s.bucket + "/" + key, nil
}
