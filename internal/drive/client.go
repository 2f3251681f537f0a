// Package drive is the remote durable store for annotation records,
// backed by Google Drive. A service account owns a single root folder;
// each annotator gets a named subfolder holding one JSONL records file.
// All lookups are name-based, so identity is "whatever matches this name
// under this parent" and the first match wins.
package drive

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Credentials resolves the service-account blob: an inline JSON value
// (typically injected through an environment variable) wins over the
// credentials file.
type Credentials struct {
	JSON string
	File string
}

// Resolve returns the raw service-account JSON.
func (c Credentials) Resolve() ([]byte, error) {
	if c.JSON != "" {
		return []byte(c.JSON), nil
	}
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no service account credentials configured")
}

// NewService builds an authenticated Drive client with drive scope.
func NewService(ctx context.Context, creds Credentials, logger *zap.Logger) (*drive.Service, error) {
	blob, err := creds.Resolve()
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(blob),
		option.WithScopes(drive.DriveScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	logger.Info("Google Drive client initialized")
	return svc, nil
}
