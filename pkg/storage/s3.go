package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxResourceFileSize is the maximum allowed size for uploaded resource files (50MB).
	MaxResourceFileSize = 50 * 1024 * 1024
	// FolderWebinarResources is the S3 prefix for files attached to webinars.
	FolderWebinarResources = "webinars"
	// FolderLibrary is the S3 prefix for the site resource library.
	FolderLibrary = "library"

	schemeS3 = "s3://"
)

// AllowedResourceExtensions maps accepted resource file extensions to their MIME type.
var AllowedResourceExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".zip":  "application/zip",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".mp4":  "video/mp4",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ResourcesBucket      string
	PresignExpireMinutes int
}

// S3 stores resource files and hands out pre-signed download URLs.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.ResourcesBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateResourceFileType reports whether filename has an accepted resource extension.
func ValidateResourceFileType(filename string) bool {
	_, ok := AllowedResourceExtensions[strings.ToLower(path.Ext(filename))]
	return ok
}

// ContentTypeForFilename returns the MIME type for a resource filename extension.
func ContentTypeForFilename(filename string) string {
	if ct, ok := AllowedResourceExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ResourceKey returns the object key for an upload: {folder}/{owner}/{random}{ext}. The random
// part keeps re-uploads of the same filename from overwriting each other.
func ResourceKey(folder, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, owner, uuid.New().String()+ext)
}

// ObjectURL returns the stored reference for an object: s3://bucket/key.
func ObjectURL(bucket, key string) string {
	return schemeS3 + bucket + "/" + key
}

// ParseObjectURL splits an s3://bucket/key reference. ok is false for any other URL.
func ParseObjectURL(raw string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(raw, schemeS3) {
		return "", "", false
	}
	rest := strings.TrimPrefix(raw, schemeS3)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// ResourcesBucket returns the bucket used for uploads.
func (s *S3) ResourcesBucket() string { return s.cfg.ResourcesBucket }

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for download.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// ResolveDownloadURL turns a stored file URL into one a browser can fetch. s3:// references
// are presigned; anything else is returned unchanged.
func (s *S3) ResolveDownloadURL(ctx context.Context, stored string) (string, error) {
	bucket, key, ok := ParseObjectURL(stored)
	if !ok {
		return stored, nil
	}
	return s.GeneratePresignedDownloadURL(ctx, bucket, key, s.PresignExpire())
}

// Upload streams a reader to the resources bucket and returns the s3:// reference to store.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.ResourcesBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if contentLength > 0 {
		input.ContentLength = aws.Int64(contentLength)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("resource uploaded", zap.String("key", key), zap.Int64("size", contentLength))
	return ObjectURL(s.cfg.ResourcesBucket, key), nil
}

// DeleteObject removes the object behind a stored s3:// reference. Other URLs are ignored.
func (s *S3) DeleteObject(ctx context.Context, stored string) error {
	bucket, key, ok := ParseObjectURL(stored)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
