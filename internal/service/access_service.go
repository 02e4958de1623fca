package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/notify"
	"github.com/orbita-academy/orbita-backend/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Errors surfaced across the service boundary. Handlers map these to
// response codes; nothing below ever panics into a request.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidRole        = errors.New("unknown role")
	ErrUnknownPermission  = errors.New("permission not in catalog")
)

// dummyHash is compared against when the username is unknown, so lookups for
// missing and existing accounts cost roughly the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("orbita-timing-pad"), bcrypt.MinCost)

// UserStore is the persistent user registry consumed by the service.
// *repository.UserRepository is the production implementation.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, role model.Role, page, perPage int) ([]model.User, int, error)
	Create(ctx context.Context, u *model.User) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *model.User) error
	UpdatePermissions(ctx context.Context, id int, permissions []string) error
	SetActive(ctx context.Context, id int, active bool) error
}

// SessionStore holds session credentials and the effective-permission cache.
// *repository.SessionRepository is the production implementation.
type SessionStore interface {
	Save(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Validate(ctx context.Context, userID int, jti string) error
	Clear(ctx context.Context, userID int) error
	CachePermissions(ctx context.Context, userID int, permissions []string, ttl time.Duration) error
	GetPermissions(ctx context.Context, userID int) ([]string, error)
	ClearPermissions(ctx context.Context, userID int) error
}

// AccessService is the single authority for "who is logged in" and
// "may they do X". Everything else consumes it.
type AccessService struct {
	cfg      *config.Config
	users    UserStore
	sessions SessionStore
	tokens   *TokenService
	notifier notify.Notifier
	log      zerolog.Logger
}

// NewAccessService creates an AccessService.
func NewAccessService(
	cfg *config.Config,
	users UserStore,
	sessions SessionStore,
	tokens *TokenService,
	notifier notify.Notifier,
	log zerolog.Logger,
) *AccessService {
	return &AccessService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		notifier: notifier,
		log:      log.With().Str("component", "access_service").Logger(),
	}
}

// Login resolves username/password against the registry, falling back to the
// bootstrap credentials for usernames not yet registered. On success it
// issues a credential, records the session, and seeds the permission cache.
func (s *AccessService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	if username == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		// Registered account: real password check.
		if !user.Active {
			s.notifier.Notify(ctx, notify.Notification{
				Event:          notify.EventLoginInactive,
				TitleKey:       "auth.login_failed",
				DescriptionKey: "auth.account_inactive",
				Severity:       notify.SeverityWarning,
				UserID:         user.ID,
				Username:       user.Username,
			})
			return nil, "", ErrAccountInactive
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			s.notifyLoginFailed(ctx, username)
			return nil, "", ErrInvalidCredentials
		}

	case errors.Is(err, repository.ErrNotFound):
		// First use of a bootstrap credential creates its user record.
		user, err = s.loginBootstrap(ctx, username, password)
		if err != nil {
			return nil, "", err
		}

	default:
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.IssueCredential(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventLoginSuccess,
		TitleKey:       "auth.login_success",
		DescriptionKey: "auth.welcome",
		Severity:       notify.SeverityInfo,
		UserID:         user.ID,
		Username:       user.Username,
	})
	return user, token, nil
}

func (s *AccessService) loginBootstrap(ctx context.Context, username, password string) (*model.User, error) {
	account, ok := bootstrapAccounts[username]
	if !ok || account.Password != password {
		// Burn a bcrypt compare so unknown usernames cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.notifyLoginFailed(ctx, username)
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Name:         account.Name,
		Email:        account.Email,
		Role:         account.Role,
		PasswordHash: string(hash),
		Permissions:  model.DefaultPermissionsFor(account.Role),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create bootstrap user: %w", err)
	}

	s.log.Info().Str("username", username).Str("role", string(account.Role)).
		Msg("Bootstrap account materialized")
	return user, nil
}

func (s *AccessService) notifyLoginFailed(ctx context.Context, username string) {
	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventLoginFailed,
		TitleKey:       "auth.login_failed",
		DescriptionKey: "auth.incorrect_credentials",
		Severity:       notify.SeverityError,
		Username:       username,
	})
}

// IssueCredential signs a fresh credential for user, records its JTI as the
// active session, and refreshes the permission cache. Used at login and when
// a handler re-issues after a self-mutation.
func (s *AccessService) IssueCredential(ctx context.Context, user *model.User) (string, error) {
	token, jti, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Save(ctx, user.ID, jti, s.cfg.SessionTTL); err != nil {
		return "", err
	}
	if err := s.sessions.CachePermissions(ctx, user.ID, user.Permissions, s.cfg.SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Logout clears the user's session. Logging out an already-unauthenticated
// user is a no-op, not an error.
func (s *AccessService) Logout(ctx context.Context, userID int) error {
	if err := s.sessions.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventLogout,
		TitleKey:       "auth.logout",
		DescriptionKey: "auth.logged_out",
		Severity:       notify.SeverityInfo,
		UserID:         userID,
	})
	return nil
}

// ValidateSession checks a verified credential's JTI against the session
// store, rejecting credentials of logged-out or deactivated users.
func (s *AccessService) ValidateSession(ctx context.Context, userID int, jti string) error {
	return s.sessions.Validate(ctx, userID, jti)
}

// EffectivePermissions returns the user's live permission set: the cached
// copy when present, otherwise loaded from the registry and re-cached.
// Mutations refresh the cache, so edits bind without re-login.
func (s *AccessService) EffectivePermissions(ctx context.Context, userID int) ([]string, error) {
	perms, err := s.sessions.GetPermissions(ctx, userID)
	if err == nil {
		return perms, nil
	}
	if !errors.Is(err, repository.ErrNoCachedPerms) {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	if err := s.sessions.CachePermissions(ctx, userID, user.Permissions, s.cfg.SessionTTL); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Permission cache refresh failed")
	}
	return user.Permissions, nil
}

// HasPermission reports whether the user currently holds code. Any failure
// to resolve the effective set degrades to false, never to an error the
// caller must handle on a render path.
func (s *AccessService) HasPermission(ctx context.Context, userID int, code string) bool {
	perms, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false
	}
	for _, p := range perms {
		if p == code {
			return true
		}
	}
	return false
}

// GetUser loads a single user record.
func (s *AccessService) GetUser(ctx context.Context, id int) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns a page of the registry, optionally filtered by role.
func (s *AccessService) ListUsers(ctx context.Context, role model.Role, page, perPage int) ([]model.User, int, error) {
	if role != "" && !role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	return s.users.List(ctx, role, page, perPage)
}

// Register creates a new account: unique id from the registry sequence,
// permissions seeded from the role defaults, active=true.
func (s *AccessService) Register(ctx context.Context, req *model.RegisterUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	taken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		Avatar:       req.Avatar,
		PasswordHash: string(hash),
		Permissions:  model.DefaultPermissionsFor(req.Role),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventUserRegistered,
		TitleKey:       "users.registered",
		DescriptionKey: "users.registered_desc",
		Severity:       notify.SeverityInfo,
		UserID:         user.ID,
		Username:       user.Username,
	})
	return user, nil
}

// Update replaces the registry entry with matching id wholesale and
// refreshes the permission cache so the change binds immediately.
func (s *AccessService) Update(ctx context.Context, id int, req *model.UpdateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Phone = req.Phone
	user.Role = req.Role
	user.Avatar = req.Avatar
	user.Permissions = req.Permissions
	user.Active = *req.Active

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.refreshAccess(ctx, user)
	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventUserUpdated,
		TitleKey:       "users.updated",
		DescriptionKey: "users.updated_desc",
		Severity:       notify.SeverityInfo,
		UserID:         user.ID,
		Username:       user.Username,
	})
	return user, nil
}

// UpdatePermissions replaces exactly the permission set for id. The cache is
// refreshed in the same call, so a live session observes the new set on its
// very next check.
func (s *AccessService) UpdatePermissions(ctx context.Context, id int, permissions []string) (*model.User, error) {
	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}

	if err := s.users.UpdatePermissions(ctx, id, permissions); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// A deactivated user keeps no cached access; the registry edit still
	// lands and takes effect on reactivation.
	if user.Active {
		if err := s.sessions.CachePermissions(ctx, id, permissions, s.cfg.SessionTTL); err != nil {
			s.log.Warn().Err(err).Int("user_id", id).Msg("Permission cache refresh failed")
		}
	} else if err := s.sessions.ClearPermissions(ctx, id); err != nil {
		s.log.Warn().Err(err).Int("user_id", id).Msg("Permission cache revoke failed")
	}

	s.notifier.Notify(ctx, notify.Notification{
		Event:          notify.EventPermissionsUpdated,
		TitleKey:       "users.permissions_updated",
		DescriptionKey: "users.permissions_updated_desc",
		Severity:       notify.SeverityInfo,
		UserID:         user.ID,
		Username:       user.Username,
	})
	return user, nil
}

// SetActive flips the active flag. Deactivation also revokes the user's
// session and permission cache, so existing credentials die on their next
// request instead of their next login.
func (s *AccessService) SetActive(ctx context.Context, id int, active bool) (*model.User, error) {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	event := notify.EventUserActivated
	severity := notify.SeverityInfo
	if !active {
		event = notify.EventUserDeactivated
		severity = notify.SeverityWarning
		if err := s.sessions.Clear(ctx, id); err != nil {
			s.log.Warn().Err(err).Int("user_id", id).Msg("Session revoke failed")
		}
		if err := s.sessions.ClearPermissions(ctx, id); err != nil {
			s.log.Warn().Err(err).Int("user_id", id).Msg("Permission cache revoke failed")
		}
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Notification{
		Event:          event,
		TitleKey:       "users.active_changed",
		DescriptionKey: "users.active_changed_desc",
		Severity:       severity,
		UserID:         user.ID,
		Username:       user.Username,
	})
	return user, nil
}

// refreshAccess re-seeds or revokes cached access after a wholesale update.
func (s *AccessService) refreshAccess(ctx context.Context, user *model.User) {
	if !user.Active {
		if err := s.sessions.Clear(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Int("user_id", user.ID).Msg("Session revoke failed")
		}
		if err := s.sessions.ClearPermissions(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Int("user_id", user.ID).Msg("Permission cache revoke failed")
		}
		return
	}
	if err := s.sessions.CachePermissions(ctx, user.ID, user.Permissions, s.cfg.SessionTTL); err != nil {
		s.log.Warn().Err(err).Int("user_id", user.ID).Msg("Permission cache refresh failed")
	}
}

func validatePermissions(permissions []string) error {
	for _, code := range permissions {
		if !model.ValidPermission(code) {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, code)
		}
	}
	return nil
}
