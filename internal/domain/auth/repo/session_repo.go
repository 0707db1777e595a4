package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duskmire/auth-service/internal/domain/auth/model"
)

// SessionRepo tracks refresh sessions. A jti with no active row is revoked:
// absence and explicit inactivation are indistinguishable on purpose.
type SessionRepo interface {
	Create(ctx context.Context, s model.Session) (model.Session, error)

	// RevokeByJTI marks the active session with that jti inactive and reports
	// whether a row changed. Revoking twice returns false the second time.
	RevokeByJTI(ctx context.Context, jti string) (bool, error)

	// RevokeAllForUser deactivates every active session of the user and
	// returns how many were affected.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	IsRevoked(ctx context.Context, jti string) (bool, error)

	// ListActive returns active sessions, most recent activity first.
	ListActive(ctx context.Context, userID uuid.UUID) ([]model.Session, error)

	// RotateJTI rebinds the active session from oldJTI to newJTI, updating
	// expiry and last activity. Returns ErrSessionRevoked when no active row
	// holds oldJTI anymore.
	RotateJTI(ctx context.Context, oldJTI, newJTI string, expiresAt time.Time) error

	GetByID(ctx context.Context, id uuid.UUID) (model.Session, error)
}
