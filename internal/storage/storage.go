// Package storage keeps payment proof files, on S3 when AWS credentials are
// configured and on local disk otherwise.  Proofs are private: callers
// read them back through Open after checking access.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
)

// Stored describes a saved proof.
type Stored struct {
	Key         string
	ContentType string
	Size        int64
}

// File is a proof read back from storage.
type File struct {
	Body        []byte
	ContentType string
}

// errMissing is returned by backends when the key does not exist.
var errMissing = errors.New("object not found")

type backend interface {
	put(ctx context.Context, key, contentType string, body []byte) error
	get(ctx context.Context, key string, max int64) ([]byte, error)
	remove(ctx context.Context, key string) error
}

// ProofStorage validates proof uploads by their sniffed content and hands
// them to the configured backend.
type ProofStorage struct {
	b        backend
	folder   string
	maxBytes int64
}

// New picks S3 when cfg is complete, local disk otherwise.
func New(cfg config.StorageConfig, maxBytes int64) (*ProofStorage, error) {
	if !cfg.UseS3() {
		log.Printf("storage: S3 not configured, using local dir %s", cfg.UploadDir)
		return NewLocal(cfg.UploadDir, cfg.Folder, maxBytes)
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	log.Printf("storage: using s3 bucket %s", cfg.Bucket)
	return &ProofStorage{
		b: &s3Backend{
			uploader: s3manager.NewUploader(sess),
			client:   s3.New(sess),
			bucket:   cfg.Bucket,
		},
		folder:   cfg.Folder,
		maxBytes: limit(maxBytes),
	}, nil
}

// NewLocal stores files under dir/folder.
func NewLocal(dir, folder string, maxBytes int64) (*ProofStorage, error) {
	if err := os.MkdirAll(filepath.Join(dir, folder), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ProofStorage{
		b:        &localBackend{dir: dir},
		folder:   folder,
		maxBytes: limit(maxBytes),
	}, nil
}

func limit(n int64) int64 {
	if n <= 0 {
		return deposit.DefaultMaxProofBytes
	}
	return n
}

// MaxBytes is the upload ceiling enforced by Save.
func (s *ProofStorage) MaxBytes() int64 { return s.maxBytes }

// Save reads at most MaxBytes+1 bytes from r, checks size and sniffed type
// and stores the content under a fresh key.  Rejections are deposit upload
// errors; backend failures are deposit service errors.
func (s *ProofStorage) Save(ctx context.Context, name string, r io.Reader) (Stored, error) {
	body, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Stored{}, deposit.Upload("read proof", err)
	}
	mt := mimetype.Detect(body)
	proof := deposit.Proof{Name: name, ContentType: mt.String(), Size: int64(len(body))}
	if err := deposit.ValidateProof(proof, s.maxBytes); err != nil {
		return Stored{}, err
	}
	key := path.Join(s.folder, uuid.NewString()+mt.Extension())
	if err := s.b.put(ctx, key, mt.String(), body); err != nil {
		return Stored{}, deposit.Service("store proof", err)
	}
	return Stored{Key: key, ContentType: mt.String(), Size: proof.Size}, nil
}

// Open reads the proof stored under key.  Unknown keys are deposit
// not-found errors.
func (s *ProofStorage) Open(ctx context.Context, key string) (File, error) {
	if !validKey(key) {
		return File{}, deposit.NotFound("proof not found")
	}
	body, err := s.b.get(ctx, key, s.maxBytes)
	if errors.Is(err, errMissing) {
		return File{}, deposit.NotFound("proof not found")
	}
	if err != nil {
		return File{}, deposit.Service("read proof", err)
	}
	return File{Body: body, ContentType: mimetype.Detect(body).String()}, nil
}

// Delete removes the proof under key.  Deleting a missing key is not an
// error.
func (s *ProofStorage) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return nil
	}
	if err := s.b.remove(ctx, key); err != nil && !errors.Is(err, errMissing) {
		return deposit.Service("delete proof", err)
	}
	return nil
}

// validKey rejects empty, absolute and parent-relative keys.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	clean := path.Clean(key)
	return clean == key && clean != ".." && !strings.HasPrefix(clean, "../")
}

type s3Backend struct {
	uploader *s3manager.Uploader
	client   *s3.S3
	bucket   string
}

func (b *s3Backend) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := b.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}

func (b *s3Backend) get(ctx context.Context, key string, max int64) ([]byte, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var ae awserr.Error
		if errors.As(err, &ae) && ae.Code() == s3.ErrCodeNoSuchKey {
			return nil, errMissing
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(io.LimitReader(out.Body, max))
}

func (b *s3Backend) remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	return err
}

type localBackend struct {
	dir string
}

func (b *localBackend) path(key string) string {
	return filepath.Join(b.dir, filepath.FromSlash(key))
}

func (b *localBackend) put(ctx context.Context, key, _ string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, body, 0o600)
}

func (b *localBackend) get(ctx context.Context, key string, max int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errMissing
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, max))
}

func (b *localBackend) remove(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return errMissing
	}
	return err
}
