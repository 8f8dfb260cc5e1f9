package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures the object storage artifact uploads.
type S3Options struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Uploader stores artifact payloads in an S3-compatible bucket through the
// minio client.
type S3Uploader struct {
	client *minio.Client
	bucket string
}

// NewS3Uploader creates the client and makes sure the bucket exists.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("could not check artifact bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("could not create artifact bucket: %w", err)
		}
	}

	return &S3Uploader{client: client, bucket: opts.Bucket}, nil
}

// Upload stores the file or directory at localPath under key and returns the
// bucket URI of the uploaded root.
func (u *S3Uploader) Upload(ctx context.Context, key, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("could not stat artifact payload: %w", err)
	}

	if !info.IsDir() {
		if err := u.putFile(ctx, key, localPath); err != nil {
			return "", err
		}

		return "s3://" + path.Join(u.bucket, key), nil
	}

	err = filepath.WalkDir(localPath, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}

		rel, relErr := filepath.Rel(localPath, p)
		if relErr != nil {
			return relErr
		}

		return u.putFile(ctx, path.Join(key, filepath.ToSlash(rel)), p)
	})
	if err != nil {
		return "", err
	}

	return "s3://" + path.Join(u.bucket, key), nil
}

func (u *S3Uploader) putFile(ctx context.Context, key, localPath string) error {
	if _, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("could not upload %q: %w", key, err)
	}

	return nil
}
