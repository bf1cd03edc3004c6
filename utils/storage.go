package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ArtifactStore is the content-store contract for generated documents.
// Write returns a stable reference (never the bytes); Delete is best-effort.
type ArtifactStore interface {
	Write(ctx context.Context, pathHint string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) bool
}

/* Local disk store (dev / single-node deployments) */

type LocalArtifactStore struct {
	Root string
}

func (s *LocalArtifactStore) Write(ctx context.Context, pathHint string, data []byte, contentType string) (string, error) {
	ref := filepath.ToSlash(filepath.Clean(pathHint))
	if strings.HasPrefix(ref, "..") {
		return "", errors.New("invalid path hint")
	}
	full := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *LocalArtifactStore) Read(ctx context.Context, ref string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(ref)))
}

func (s *LocalArtifactStore) Delete(ctx context.Context, ref string) bool {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(ref)))
	return err == nil || os.IsNotExist(err)
}

/* Google Cloud Storage store */

type GCSArtifactStore struct {
	Bucket string
}

// getGoogleClient initializes a Google Cloud Storage client.
// Prefer ADC (service account / GOOGLE_APPLICATION_CREDENTIALS); explicit JSON
// can be provided via GCS_CREDENTIALS_JSON for local runs.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func (s *GCSArtifactStore) Write(ctx context.Context, pathHint string, data []byte, contentType string) (string, error) {
	if s.Bucket == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(s.Bucket).Object(pathHint).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		return "", fmt.Errorf("failed to upload artifact to Google Cloud Storage: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}
	return pathHint, nil
}

func (s *GCSArtifactStore) Read(ctx context.Context, ref string) ([]byte, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	rc, err := client.Bucket(s.Bucket).Object(ref).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *GCSArtifactStore) Delete(ctx context.Context, ref string) bool {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return false
	}
	defer client.Close()

	err = client.Bucket(s.Bucket).Object(ref).Delete(ctx)
	return err == nil || err == storage.ErrObjectNotExist
}

// ArtifactContentType maps generated-document extensions to MIME types.
func ArtifactContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(filename, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
