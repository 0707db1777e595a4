package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
	"github.com/duskmire/auth-service/internal/domain/auth/model"
)

type SessionRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (p *SessionRepo) WithClock(now func() time.Time) *SessionRepo {
	p.now = now
	return p
}

func (p *SessionRepo) Create(ctx context.Context, s model.Session) (model.Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := p.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastActivity.IsZero() {
		s.LastActivity = now
	}
	s.IsActive = true

	if err := p.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "CreateSession")
	}
	return s, nil
}

func (p *SessionRepo) RevokeByJTI(ctx context.Context, jti string) (bool, error) {
	res := p.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("token_jti = ? AND is_active = ?", jti, true).
		Update("is_active", false)
	if err := res.Error; err != nil {
		return false, customErrors.WrapInternal(err, "RevokeByJTI")
	}
	return res.RowsAffected > 0, nil
}

func (p *SessionRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := p.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "RevokeAllForUser")
	}
	return res.RowsAffected, nil
}

// IsRevoked treats a missing row and an inactive row the same: no active
// session means the jti is dead.
func (p *SessionRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	res := p.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("token_jti = ? AND is_active = ?", jti, true).
		Count(&count)
	if err := res.Error; err != nil {
		return true, customErrors.WrapInternal(err, "IsRevoked")
	}
	return count == 0, nil
}

func (p *SessionRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	var out []model.Session
	res := p.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_activity DESC").
		Find(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListActive")
	}
	return out, nil
}

func (p *SessionRepo) RotateJTI(ctx context.Context, oldJTI, newJTI string, expiresAt time.Time) error {
	res := p.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("token_jti = ? AND is_active = ?", oldJTI, true).
		Updates(map[string]interface{}{
			"token_jti":     newJTI,
			"expires_at":    expiresAt,
			"last_activity": p.now(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "RotateJTI")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrSessionRevoked
	}
	return nil
}

func (p *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	var s model.Session
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&s)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Session{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "GetSessionByID")
	}
	return s, nil
}
