package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
	"github.com/duskmire/auth-service/internal/domain/auth/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Session{}))
	return db
}

func newSession(userID uuid.UUID, jti string) model.Session {
	return model.Session{
		UserID:    userID,
		TokenJTI:  jti,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestSessionRepo_CreateAndIsRevoked(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	ctx := context.Background()

	s, err := repo.Create(ctx, newSession(uuid.New(), "jti1"))
	require.NoError(t, err)
	require.True(t, s.IsActive)
	require.NotEqual(t, uuid.Nil, s.ID)

	revoked, err := repo.IsRevoked(ctx, "jti1")
	require.NoError(t, err)
	require.False(t, revoked)

	// unknown jti counts as revoked
	revoked, err = repo.IsRevoked(ctx, "never-issued")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestSessionRepo_RevokeIdempotent(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newSession(uuid.New(), "jti2"))
	require.NoError(t, err)

	changed, err := repo.RevokeByJTI(ctx, "jti2")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.RevokeByJTI(ctx, "jti2")
	require.NoError(t, err)
	require.False(t, changed)

	revoked, err := repo.IsRevoked(ctx, "jti2")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestSessionRepo_RevokeAllForUser(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	ctx := context.Background()
	uid := uuid.New()

	for _, jti := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, newSession(uid, jti))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newSession(uuid.New(), "other-user"))
	require.NoError(t, err)

	count, err := repo.RevokeAllForUser(ctx, uid)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	for _, jti := range []string{"a", "b", "c"} {
		revoked, err := repo.IsRevoked(ctx, jti)
		require.NoError(t, err)
		require.True(t, revoked)
	}

	revoked, err := repo.IsRevoked(ctx, "other-user")
	require.NoError(t, err)
	require.False(t, revoked)

	count, err = repo.RevokeAllForUser(ctx, uid)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSessionRepo_ListActiveOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	repo := NewSessionRepo(newTestDB(t)).WithClock(func() time.Time { return clock })
	ctx := context.Background()
	uid := uuid.New()

	for _, jti := range []string{"old", "mid", "new"} {
		_, err := repo.Create(ctx, newSession(uid, jti))
		require.NoError(t, err)
		clock = clock.Add(time.Minute)
	}

	changed, err := repo.RevokeByJTI(ctx, "mid")
	require.NoError(t, err)
	require.True(t, changed)

	active, err := repo.ListActive(ctx, uid)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "new", active[0].TokenJTI)
	require.Equal(t, "old", active[1].TokenJTI)
}

func TestSessionRepo_RotateJTI(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	ctx := context.Background()
	uid := uuid.New()

	created, err := repo.Create(ctx, newSession(uid, "before"))
	require.NoError(t, err)

	newExpiry := time.Now().Add(2 * time.Hour)
	require.NoError(t, repo.RotateJTI(ctx, "before", "after", newExpiry))

	// old handle dead, new handle live
	revoked, err := repo.IsRevoked(ctx, "before")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = repo.IsRevoked(ctx, "after")
	require.NoError(t, err)
	require.False(t, revoked)

	// still the same row
	s, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "after", s.TokenJTI)

	// rotating a dead jti fails
	err = repo.RotateJTI(ctx, "before", "again", newExpiry)
	require.ErrorIs(t, err, customErrors.ErrSessionRevoked)
}

func TestSessionRepo_GetByIDNotFound(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, customErrors.ErrNotFound)
}
