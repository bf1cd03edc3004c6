package utils

import (
	"os"
	"strings"
	"sync"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderLocal = "local"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderLocal
	}
	return provider
}

var (
	artifactStoreOnce sync.Once
	artifactStore     ArtifactStore
)

// GetArtifactStore returns the process-wide artifact store, selected by
// STORAGE_PROVIDER (local | gcs).
func GetArtifactStore() ArtifactStore {
	artifactStoreOnce.Do(func() {
		switch GetStorageProvider() {
		case StorageProviderGCS:
			artifactStore = &GCSArtifactStore{Bucket: os.Getenv("GCS_BUCKET")}
		default:
			root := os.Getenv("ARTIFACT_ROOT")
			if root == "" {
				root = "media"
			}
			artifactStore = &LocalArtifactStore{Root: root}
		}
	})
	return artifactStore
}
