package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SchemeS3 is the URL scheme handled by S3Source.
const SchemeS3 = "s3"

// ErrInvalidS3Reference is returned when a reference is not of the form s3://bucket/key.
var ErrInvalidS3Reference = errors.New("invalid s3 reference: expected s3://bucket/key")

// Compile-time check that S3Source implements Source.
var _ Source = (*S3Source)(nil)

// S3Config holds the configuration for the S3 asset source.
type S3Config struct {
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Source downloads s3://bucket/key assets so they can be validated and
// encoded like local files.
type S3Source struct {
	client *s3.Client
	region string
}

// NewS3Source creates a new S3Source from the given configuration.
func NewS3Source(cfg S3Config) (*S3Source, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		region: cfg.Region,
	}, nil
}

// Fetch downloads the object addressed by ref into dst.
// The partially written file is removed on failure.
func (s *S3Source) Fetch(ctx context.Context, ref *url.URL, dst string) error {
	bucket, key, err := splitS3Reference(ref)
	if err != nil {
		return err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3 object %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304 - dst is allocated inside the scratch dir
	if err != nil {
		return fmt.Errorf("%w: create file: %w", ErrStorage, err)
	}

	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("download s3 object %s/%s: %w", bucket, key, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("%w: close file: %w", ErrStorage, err)
	}

	return nil
}

// splitS3Reference extracts the bucket and key from an s3:// URL.
func splitS3Reference(ref *url.URL) (bucket, key string, err error) {
	if ref == nil || !strings.EqualFold(ref.Scheme, SchemeS3) {
		return "", "", ErrInvalidS3Reference
	}
	bucket = ref.Host
	key = strings.TrimPrefix(ref.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidS3Reference, ref.String())
	}
	return bucket, key, nil
}
