// Package storage keeps uploaded files in named buckets and hands back the
// public URL they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	BucketRaffles = "rifas"
	BucketProofs  = "comprobantes"
)

// MaxUploadSize caps a single object.
const MaxUploadSize = 5 << 20

var (
	ErrBadBucket    = errors.New("invalid bucket name")
	ErrBadExtension = errors.New("file type not allowed")
	ErrTooLarge     = errors.New("file too large")
)

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".pdf": true,
}

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// PathPrefix is where the router mounts the buckets.
const PathPrefix = "/storage"

type Bucket struct {
	root    string
	baseURL string
}

// New stores objects under root; URLs are built from baseURL + PathPrefix.
func New(root, baseURL string) (*Bucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Bucket{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root is the directory served under PathPrefix.
func (b *Bucket) Root() string { return b.root }

// Upload copies r into bucket under a fresh name that keeps filename's extension
// and returns the object's public URL.
func (b *Bucket) Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	if !bucketName.MatchString(bucket) {
		return "", ErrBadBucket
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrBadExtension, ext)
	}

	dir := filepath.Join(b.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, io.LimitReader(readerWithContext{ctx, r}, MaxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return b.URL(bucket, name), nil
}

func (b *Bucket) URL(bucket, name string) string {
	return b.baseURL + PathPrefix + "/" + bucket + "/" + name
}

// Remove deletes the object behind a URL produced by Upload. URLs from
// elsewhere are ignored.
func (b *Bucket) Remove(publicURL string) error {
	prefix := b.baseURL + PathPrefix + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	rel := strings.TrimPrefix(publicURL, prefix)
	parts := strings.Split(rel, "/")
	if len(parts) != 2 || !bucketName.MatchString(parts[0]) || parts[1] != filepath.Base(parts[1]) {
		return nil
	}
	err := os.Remove(filepath.Join(b.root, parts[0], parts[1]))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
