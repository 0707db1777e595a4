package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/duskmire/auth-service/internal/adapters/transport/http/dto"
	"github.com/duskmire/auth-service/internal/app/auth/hash"
	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
	"github.com/duskmire/auth-service/internal/domain/auth/model"
	"github.com/duskmire/auth-service/internal/domain/auth/repo"
	"github.com/duskmire/auth-service/internal/domain/auth/token"
	"github.com/duskmire/auth-service/internal/infra/config"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 30 * time.Minute
)

type Service interface {
	Register(ctx context.Context, in dto.RegisterDTO, meta dto.SessionMeta) (model.User, model.TokenPair, error)
	Login(ctx context.Context, in dto.LoginDTO, meta dto.SessionMeta) (model.User, model.TokenPair, error)
	Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error)
	Logout(ctx context.Context, in dto.LogoutDTO) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error

	// Authenticate resolves a verified user from a bearer access token. It is
	// the entry point the request middleware and the WebSocket handshake use.
	Authenticate(ctx context.Context, accessToken string) (model.User, error)

	Sessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

type authService struct {
	users    repo.UserRepo
	sessions repo.SessionRepo
	codec    token.Codec
	hasher   hash.Hasher
	cfg      *config.Config
	v        *validator.Validate
	now      func() time.Time
}

func New(
	ur repo.UserRepo,
	sr repo.SessionRepo,
	codec token.Codec,
	hasher hash.Hasher,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &authService{
		users: ur, sessions: sr, codec: codec, hasher: hasher,
		cfg: cfg, v: v, now: time.Now,
	}
}

// NewWithClock builds a service on a fixed clock, for tests.
func NewWithClock(
	ur repo.UserRepo,
	sr repo.SessionRepo,
	codec token.Codec,
	hasher hash.Hasher,
	cfg *config.Config,
	v *validator.Validate,
	now func() time.Time,
) Service {
	return &authService{
		users: ur, sessions: sr, codec: codec, hasher: hasher,
		cfg: cfg, v: v, now: now,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO, meta dto.SessionMeta) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	if _, err := a.users.GetUserByUsername(ctx, in.Username); err == nil {
		return model.User{}, model.TokenPair{}, customErrors.ErrAlreadyExists
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}
	if _, err := a.users.GetUserByEmail(ctx, in.Email); err == nil {
		return model.User{}, model.TokenPair{}, customErrors.ErrAlreadyExists
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	now := a.now()
	user := model.User{
		ID:            uuid.New(),
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  passwordHash,
		Role:          model.RolePlayer,
		Status:        model.StatusActive, // no email verification step
		IsVerified:    true,
		MaxCharacters: 5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, model.TokenPair{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	pair, err := a.issueTokens(ctx, user, a.cfg.RefreshTokenTTL, meta)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	user.LastLogin = &now
	if err := a.users.UpdateUser(ctx, user); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	return user, pair, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO, meta dto.SessionMeta) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.lookupByIdentifier(ctx, in.Identifier)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// same error as a wrong password: no account enumeration
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	now := a.now()

	// Lock and status are checked before the password so a locked account
	// gives no signal about password correctness.
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return model.User{}, model.TokenPair{}, customErrors.ErrAccountLocked
	}
	if user.Status != model.StatusActive {
		return model.User{}, model.TokenPair{}, customErrors.ErrAccountNotActive
	}

	if !a.hasher.Verify(in.Password, user.PasswordHash) {
		user.FailedLogins++
		if user.FailedLogins >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			user.LockedUntil = &lockedUntil
		}
		if err := a.users.UpdateUser(ctx, user); err != nil {
			return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
		}
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	user.FailedLogins = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	if err := a.users.UpdateUser(ctx, user); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	refreshTTL := a.cfg.ShortRefreshTTL
	if in.RememberMe {
		refreshTTL = a.cfg.RefreshTokenTTL
	}

	pair, err := a.issueTokens(ctx, user, refreshTTL, meta)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return user, pair, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.Verify(in.RefreshToken, token.TypeRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	revoked, err := a.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	if revoked {
		return model.TokenPair{}, customErrors.ErrSessionRevoked
	}

	uid, err := claims.UserID()
	if err != nil {
		return model.TokenPair{}, err
	}
	user, err := a.users.GetUserByID(ctx, uid)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}
	if user.Status != model.StatusActive {
		return model.TokenPair{}, customErrors.ErrAccountNotActive
	}

	pair, refreshClaims, err := a.mintPair(user, a.cfg.RefreshTokenTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Rotation: the old jti dies with this call, the session row lives on
	// under the new jti.
	if err := a.sessions.RotateJTI(ctx, claims.ID, refreshClaims.ID, refreshClaims.ExpiresAt.Time); err != nil {
		return model.TokenPair{}, err
	}

	return pair, nil
}

// Logout always reports success: a caller must not learn from logout whether
// the token it presented was well-formed.
func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	claims, err := a.codec.Verify(in.AccessToken, token.TypeAccess)
	if err != nil {
		return nil
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil
	}

	if in.RevokeAll {
		if _, err := a.sessions.RevokeAllForUser(ctx, uid); err != nil {
			return customErrors.WrapInternal(err, "Logout")
		}
		return nil
	}

	// Sessions track the refresh jti, not the access jti presented here, so
	// revoke the most recently active session as the best available match.
	active, err := a.sessions.ListActive(ctx, uid)
	if err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	if len(active) > 0 {
		if _, err := a.sessions.RevokeByJTI(ctx, active[0].TokenJTI); err != nil {
			return customErrors.WrapInternal(err, "Logout")
		}
	}
	return nil
}

func (a *authService) ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	if !a.hasher.Verify(in.CurrentPassword, user.PasswordHash) {
		return customErrors.ErrInvalidCredentials
	}

	newHash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = newHash
	user.UpdatedAt = a.now()
	if err := a.users.UpdateUser(ctx, user); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	// Every outstanding refresh token dies with the old password.
	if _, err := a.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	return nil
}

func (a *authService) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	claims, err := a.codec.Verify(accessToken, token.TypeAccess)
	if err != nil {
		return model.User{}, err
	}
	uid, err := claims.UserID()
	if err != nil {
		return model.User{}, err
	}
	user, err := a.users.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}
	if user.Status != model.StatusActive {
		return model.User{}, customErrors.ErrAccountNotActive
	}
	return user, nil
}

func (a *authService) Sessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	return a.sessions.ListActive(ctx, userID)
}

func (a *authService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	s, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	// Someone else's session looks exactly like a missing one.
	if s.UserID != userID || !s.IsActive {
		return customErrors.ErrNotFound
	}
	if _, err := a.sessions.RevokeByJTI(ctx, s.TokenJTI); err != nil {
		return customErrors.WrapInternal(err, "RevokeSession")
	}
	return nil
}

func (a *authService) lookupByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	user, err := a.users.GetUserByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, customErrors.ErrNotFound) {
		return model.User{}, err
	}
	return a.users.GetUserByEmail(ctx, identifier)
}

func (a *authService) mintPair(user model.User, refreshTTL time.Duration) (model.TokenPair, token.Claims, error) {
	access, accessClaims, err := a.codec.Mint(user.ID, user.Username, token.TypeAccess, a.cfg.AccessTokenTTL)
	if err != nil {
		return model.TokenPair{}, token.Claims{}, err
	}
	refresh, refreshClaims, err := a.codec.Mint(user.ID, user.Username, token.TypeRefresh, refreshTTL)
	if err != nil {
		return model.TokenPair{}, token.Claims{}, err
	}

	now := a.now()
	return model.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessTTL:       accessClaims.ExpiresAt.Sub(now),
		RefreshTTL:      refreshClaims.ExpiresAt.Sub(now),
		UserID:          user.ID,
		RefreshTokenJTI: refreshClaims.ID,
	}, refreshClaims, nil
}

func (a *authService) issueTokens(ctx context.Context, user model.User, refreshTTL time.Duration, meta dto.SessionMeta) (model.TokenPair, error) {
	pair, refreshClaims, err := a.mintPair(user, refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	if _, err := a.sessions.Create(ctx, model.Session{
		UserID:     user.ID,
		TokenJTI:   refreshClaims.ID,
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		ExpiresAt:  refreshClaims.ExpiresAt.Time,
	}); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "CreateSession")
	}

	return pair, nil
}
