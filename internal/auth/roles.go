package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// RoleRecord carries the authorization attributes of a user identity
type RoleRecord struct {
	Role     string
	IsActive bool
}

// RoleLookup fetches authorization attributes on demand. Results are
// never cached: every protected-route evaluation re-reads the profile.
type RoleLookup interface {
	// FetchProfile returns (nil, nil) when no profile row exists, which
	// callers treat as not authorized.
	FetchProfile(ctx context.Context, userID string) (*RoleRecord, error)
}

type profileLookup struct {
	db *gorm.DB
}

// NewProfileLookup creates a RoleLookup over the profiles table
func NewProfileLookup(db *gorm.DB) RoleLookup {
	return &profileLookup{db: db}
}

func (l *profileLookup) FetchProfile(ctx context.Context, userID string) (*RoleRecord, error) {
	var profile models.Profile
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapStoreError(err)
	}
	return &RoleRecord{Role: profile.Role, IsActive: profile.IsActive}, nil
}
