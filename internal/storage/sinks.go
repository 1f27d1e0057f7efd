package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// FlatMirror copies every stored file into a single directory keyed by file name.
// Stored names carry a uuid prefix, so names do not collide.
type FlatMirror struct {
	dir string
}

// NewFlatMirror creates dir if needed.
func NewFlatMirror(dir string) (*FlatMirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create flat mirror dir %s", dir)
	}
	return &FlatMirror{dir: dir}, nil
}

func (m *FlatMirror) Name() string { return "flat" }

func (m *FlatMirror) Mirror(ctx context.Context, publicPath, localPath, _ string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer src.Close()

	dest := filepath.Join(m.dir, path.Base(publicPath))
	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "create mirror file")
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return errors.Wrap(err, "copy to mirror")
	}
	return out.Close()
}

func (m *FlatMirror) Remove(ctx context.Context, publicPath string) error {
	err := os.Remove(filepath.Join(m.dir, path.Base(publicPath)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove mirror file")
	}
	return nil
}

// MinioConfig locates the bucket used by MinioMirror.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioMirror uploads every stored file to an S3-compatible bucket, keyed by its path
// below the upload root.
type MinioMirror struct {
	client *minio.Client
	bucket string
}

// NewMinioMirror connects to the object store and creates the bucket if missing.
func NewMinioMirror(ctx context.Context, cfg MinioConfig) (*MinioMirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "create bucket")
		}
	}
	return &MinioMirror{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioMirror) Name() string { return "minio" }

func objectKey(publicPath string) string {
	return strings.TrimPrefix(publicPath, URLPrefix)
}

func (m *MinioMirror) Mirror(ctx context.Context, publicPath, localPath, contentType string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, objectKey(publicPath), localPath,
		minio.PutObjectOptions{ContentType: contentType})
	return errors.Wrap(err, "upload to bucket")
}

func (m *MinioMirror) Remove(ctx context.Context, publicPath string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectKey(publicPath), minio.RemoveObjectOptions{})
	return errors.Wrap(err, "remove from bucket")
}
