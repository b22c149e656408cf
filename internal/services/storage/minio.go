// Package storage uploads product images to MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile     = errors.New("storage: empty file")
	ErrMissingID     = errors.New("storage: product id required")
	ErrNotConfigured = errors.New("storage: object store not configured")
)

// ObjectPutter is the subset of *minio.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Image struct {
	ProductID  string    `json:"product_id"`
	Object     string    `json:"object"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Uploader struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	log     *zap.Logger
	now     func() time.Time
}

// NewUploader returns an uploader publishing objects under
// <scheme>://<endpoint>/<bucket>/. A nil client disables uploads.
func NewUploader(client ObjectPutter, endpoint, bucket string, secure bool, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(endpoint, "/"), bucket),
		log:     log,
		now:     time.Now,
	}
}

// ObjectName builds products/<id>_<unix><ext>.
func ObjectName(productID, filename string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("products", fmt.Sprintf("%s_%d%s", productID, at.Unix(), ext))
}

// Upload stores one image. Empty files are rejected before the object store
// is contacted.
func (u *Uploader) Upload(ctx context.Context, productID, filename, contentType string, r io.Reader, size int64) (*Image, error) {
	if productID == "" {
		return nil, ErrMissingID
	}
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if u.client == nil {
		return nil, ErrNotConfigured
	}

	at := u.now()
	object := ObjectName(productID, filename, at)

	info, err := u.client.PutObject(ctx, u.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", u.bucket, object, err)
	}

	u.log.Info("product image uploaded",
		zap.String("product_id", productID),
		zap.String("object", object),
		zap.Int64("size", info.Size))

	return &Image{
		ProductID:  productID,
		Object:     object,
		URL:        u.baseURL + "/" + object,
		Size:       info.Size,
		UploadedAt: at,
	}, nil
}
