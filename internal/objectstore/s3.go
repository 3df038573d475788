package objectstore

// Adapted from the teacher's storage/s3.go: same aws-sdk-go/v1
// session+client construction, generalized from a write-only,
// redirect-aware resource store to a symmetric upload/download UTF-8
// blob store addressed by content hash, with explicit credentials and
// endpoint (matching the crawler's S3Config surface, spec.md §6)
// instead of relying on ambient ~/.aws/credentials.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config is the subset of spec.md §6's "s3.*" configuration surface
// needed to build a client.
type S3Config struct {
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
	Region     string
}

// S3Store is the production Store backend.
type S3Store struct {
	svc    *s3.S3
	bucket string
}

// NewS3 builds an S3Store from an explicit configuration.
func NewS3(cfg S3Config) (Store, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("objectstore: s3 session: %w", err)
	}
	return &S3Store{svc: s3.New(sess), bucket: cfg.BucketName}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, content string) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(content)),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	return err
}

func (s *S3Store) Download(ctx context.Context, key string) (string, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *S3Store) Close() error { return nil }

// newS3FromTarget builds an S3Store from a bare "<region>:<bucket>"
// path, for scheme-registry construction against the default AWS
// credential chain — the teacher's own registration shape
// (storage/s3.go), kept for local/CLI use against real AWS.
func newS3FromTarget(path string) (Store, error) {
	region, bucket, ok := strings.Cut(path, ":")
	if !ok {
		return nil, fmt.Errorf(`objectstore: s3 path %q does not have expected format "<region>:<bucket>"`, path)
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &S3Store{svc: s3.New(sess), bucket: bucket}, nil
}

func init() {
	register("s3", newS3FromTarget)
}
