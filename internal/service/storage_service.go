package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
)

const (
	defaultMaxImageSize = 5 << 20
	defaultImageURLTTL  = 15 * time.Minute
	sliderPathPrefix    = "sliders"
	sniffLen            = 3072
)

var (
	ErrFileTooBig           = errors.New("image exceeds the upload size limit")
	ErrInvalidFileType      = errors.New("image must be a jpeg, png, gif or webp file")
	ErrStorageDisabled      = errors.New("object storage is disabled")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrUnauthorizedAccess   = errors.New("object does not belong to owner")

	imageExtensions = map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/gif":  "gif",
		"image/webp": "webp",
	}
)

// ImageStorage stores slider images under a per-owner key prefix.
type ImageStorage interface {
	PutImage(ctx context.Context, ownerID uint, file io.Reader, size int64) (string, error)
	DeleteImage(ctx context.Context, ownerID uint, objectKey string) error
	ImageURL(ctx context.Context, objectKey string) (string, error)
	Ping(ctx context.Context) error
}

type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
	maxSize    int64
	urlTTL     time.Duration
	initOnce   sync.Once
	initErr    error
}

// NewMinIOStorageService builds the client only. The bucket is checked and
// created on first use so startup does not depend on MinIO.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool, maxSize int64, urlTTL time.Duration) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if maxSize <= 0 {
		maxSize = defaultMaxImageSize
	}
	if urlTTL <= 0 {
		urlTTL = defaultImageURLTTL
	}
	return &MinIOStorageService{client: client, bucketName: bucketName, maxSize: maxSize, urlTTL: urlTTL}, nil
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = fmt.Errorf("%w: check bucket: %v", ErrBucketCreationFailed, err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			s.initErr = fmt.Errorf("%w: make bucket: %v", ErrBucketCreationFailed, err)
		}
	})
	return s.initErr
}

// PutImage validates size and sniffed type before touching MinIO, then
// stores the object at sliders/{owner}/{uuid}.{ext}.
func (s *MinIOStorageService) PutImage(ctx context.Context, ownerID uint, file io.Reader, size int64) (string, error) {
	head, contentType, err := sniffImage(file, size, s.maxSize)
	if err != nil {
		observability.RecordStorageOperation(ctx, "put", "rejected")
		return "", err
	}
	if err := s.lazyInit(ctx); err != nil {
		observability.RecordStorageOperation(ctx, "put", "error")
		return "", err
	}

	objectKey := imageObjectKey(ownerID, contentType)
	ctx, span := observability.Tracer().Start(ctx, "storage.put_image", trace.WithAttributes(
		attribute.String("storage.object_key", objectKey),
		attribute.Int64("storage.size", size),
	))
	defer span.End()
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, io.MultiReader(bytes.NewReader(head), file), size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"Owner-ID":    strconv.FormatUint(uint64(ownerID), 10),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put object")
		observability.RecordStorageOperation(ctx, "put", "error")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	observability.RecordStorageOperation(ctx, "put", "success")
	observability.RecordStorageUploadBytes(ctx, contentType, size)
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteImage(ctx context.Context, ownerID uint, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if err := checkImageOwner(ownerID, objectKey); err != nil {
		observability.RecordStorageOperation(ctx, "delete", "rejected")
		return err
	}
	if err := s.lazyInit(ctx); err != nil {
		observability.RecordStorageOperation(ctx, "delete", "error")
		return err
	}
	ctx, span := observability.Tracer().Start(ctx, "storage.delete_image", trace.WithAttributes(
		attribute.String("storage.object_key", objectKey),
	))
	defer span.End()
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove object")
		observability.RecordStorageOperation(ctx, "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordStorageOperation(ctx, "delete", "success")
	return nil
}

func (s *MinIOStorageService) ImageURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, s.urlTTL, url.Values{})
	if err != nil {
		observability.RecordStorageOperation(ctx, "presign", "error")
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return u.String(), nil
}

func (s *MinIOStorageService) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// DisabledStorageService stands in when MinIO is not configured. Uploads are
// refused; deletes and URLs are no-ops.
type DisabledStorageService struct{}

func NewDisabledStorageService() *DisabledStorageService { return &DisabledStorageService{} }

func (DisabledStorageService) PutImage(context.Context, uint, io.Reader, int64) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStorageService) DeleteImage(context.Context, uint, string) error { return nil }

func (DisabledStorageService) ImageURL(context.Context, string) (string, error) { return "", nil }

func (DisabledStorageService) Ping(context.Context) error { return nil }

// sniffImage reads the head of file and returns it with the detected type.
// The client-declared content type is never trusted.
func sniffImage(file io.Reader, size, maxSize int64) ([]byte, string, error) {
	if size > maxSize {
		return nil, "", ErrFileTooBig
	}
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("%w: read file: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]
	contentType := mimetype.Detect(buf).String()
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", ErrInvalidFileType
	}
	return buf, contentType, nil
}

func imageObjectKey(ownerID uint, contentType string) string {
	return fmt.Sprintf("%s/%d/%s.%s", sliderPathPrefix, ownerID, uuid.NewString(), imageExtensions[contentType])
}

func checkImageOwner(ownerID uint, objectKey string) error {
	if strings.Contains(objectKey, "..") {
		return ErrUnauthorizedAccess
	}
	if !strings.HasPrefix(objectKey, fmt.Sprintf("%s/%d/", sliderPathPrefix, ownerID)) {
		return ErrUnauthorizedAccess
	}
	return nil
}
