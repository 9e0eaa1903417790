package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ivlev/beat2video/internal/video"
)

// PutObjectAPI is the part of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads artifacts to s3://Bucket/Prefix/name.
type S3Sink struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
	Logger *zap.Logger
}

// NewS3Sink builds a sink on the default AWS configuration chain. An empty
// region leaves the SDK defaults in place.
func NewS3Sink(ctx context.Context, bucket, prefix, region string, logger *zap.Logger) (*S3Sink, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Sink{
		Client: s3.NewFromConfig(awsCfg),
		Bucket: bucket,
		Prefix: prefix,
		Logger: logger,
	}, nil
}

func (s *S3Sink) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3Sink) Deliver(ctx context.Context, name string, a video.Artifact) (string, error) {
	key := s.Key(name)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(a.Data),
		ContentLength: aws.Int64(int64(len(a.Data))),
	}
	if a.MIME != "" {
		in.ContentType = aws.String(a.MIME)
	}
	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.Bucket, key, err)
	}

	loc := fmt.Sprintf("s3://%s/%s", s.Bucket, key)
	if s.Logger != nil {
		s.Logger.Info("artifact uploaded", zap.String("location", loc), zap.Int("bytes", len(a.Data)))
	}
	return loc, nil
}
