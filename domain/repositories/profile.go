package repositories

import "github.com/xuanvuong/mochi/server/domain/entities"

// ProfileStore persists the single local learner profile. Load returns
// (nil, nil) when no profile has been saved yet.
type ProfileStore interface {
	Load() (*entities.UserProfile, error)
	Save(profile *entities.UserProfile) error
}
