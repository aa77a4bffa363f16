// Package storage uploads user avatars to an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/news-api/internal/config"
)

// ErrUnsupportedType is returned for uploads that are not an accepted image type.
var ErrUnsupportedType = errors.New("unsupported avatar content type")

var avatarExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStore saves an avatar image and returns its public URL.
type AvatarStore interface {
	PutAvatar(ctx context.Context, username, contentType string, body io.Reader, size int64) (string, error)
}

// objectPutter is the part of *s3.Client the store needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3AvatarStore struct {
	client    objectPutter
	bucket    string
	publicURL string
}

// NewS3AvatarStore builds the S3 client from cfg. Static credentials are
// used when both keys are set, the default AWS chain otherwise.
func NewS3AvatarStore(ctx context.Context, cfg config.StorageConfig) (*S3AvatarStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	public := cfg.PublicURL
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return newS3AvatarStore(client, cfg.Bucket, public), nil
}

func newS3AvatarStore(client objectPutter, bucket, publicURL string) *S3AvatarStore {
	return &S3AvatarStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// PutAvatar stores the image under avatars/<username>/<uuid><ext>. Each
// upload gets a fresh key so caches never serve a stale image.
func (s *S3AvatarStore) PutAvatar(ctx context.Context, username, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := avatarExt[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	key := path.Join("avatars", username, uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
