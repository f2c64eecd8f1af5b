// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pdiddy/pdfbatch/pkg/types"
)

// objectAPI is the subset of the S3 client used by S3.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 stores artifacts as objects in a bucket. Paths map to keys under
// Prefix; directories do not exist as objects.
type S3 struct {
	client   objectAPI
	uploader uploader
	bucket   string
	prefix   string
}

// NewS3 builds an S3 backend from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg types.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: storage.s3.bucket is required", types.ErrConfig)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
	}, nil
}

// Key returns the object key for p.
func (s *S3) Key(p string) string {
	return objectKey(s.prefix, p)
}

func objectKey(prefix, p string) string {
	clean := path.Clean(filepath.ToSlash(p))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." {
		clean = ""
	}
	return strings.TrimPrefix(path.Join(prefix, clean), "/")
}

func (s *S3) Read(ctx context.Context, p string, mode Mode) ([]byte, error) {
	key := s.Key(p)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3 object %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 download read %s: %w", key, err)
	}
	if err := checkText(data, mode); err != nil {
		return nil, fmt.Errorf("s3 object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3) Write(ctx context.Context, content []byte, p string, mode Mode) error {
	key := s.Key(p)
	if err := checkText(content, mode); err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType(p, mode)),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, p string) (bool, error) {
	key := s.Key(p)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s: %w", key, err)
}

func (s *S3) MkdirAll(context.Context, string) error { return nil }

func isS3NotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func contentType(p string, mode Mode) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	if mode == ModeText {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
