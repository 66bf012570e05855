// Package profile persists the single local learner record.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// DefaultFileName is the well-known key the profile record lives under.
const DefaultFileName = "mochi_user_profile.json"

// FileStore keeps the profile as one JSON record on disk, read once at
// startup and replaced wholesale on onboarding submit.
type FileStore struct {
	path   string
	logger *zap.Logger
}

var _ repositories.ProfileStore = (*FileStore)(nil)

// NewFileStore creates a store at path; an empty path uses DefaultFileName in
// the working directory.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the profile record. A missing file means no profile has been
// saved yet and returns (nil, nil).
func (s *FileStore) Load() (*entities.UserProfile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile entities.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	s.logger.Info("Loaded user profile", zap.String("name", profile.Name))
	return &profile, nil
}

// Save replaces the profile record.
func (s *FileStore) Save(profile *entities.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	// Write-then-rename keeps the record intact if the process dies mid-write.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}

	s.logger.Info("Saved user profile",
		zap.String("name", profile.Name),
		zap.String("path", filepath.Clean(s.path)))
	return nil
}
