package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/ics"
)

// PutObjectAPI is the part of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Sink struct {
	client PutObjectAPI
	bucket string
	key    string
}

// NewS3 publishes to bucket/key through client. The object is served as an
// attachment named after the key.
func NewS3(client PutObjectAPI, cfg config.S3Config) (Sink, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is empty")
	}
	key := strings.TrimLeft(cfg.Key, "/")
	if key == "" {
		return nil, errors.New("s3 key is empty")
	}
	return &s3Sink{client: client, bucket: cfg.Bucket, key: key}, nil
}

// NewS3FromConfig builds the client from the default AWS credential chain.
func NewS3FromConfig(ctx context.Context, cfg config.S3Config) (Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg)
}

func (s *s3Sink) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *s3Sink) Push(ctx context.Context, doc ics.Document) error {
	name := s.key[strings.LastIndex(s.key, "/")+1:]
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(s.key),
		Body:               strings.NewReader(doc.Text),
		ContentType:        aws.String(ContentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
		CacheControl:       aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.Name(), err)
	}
	return nil
}
