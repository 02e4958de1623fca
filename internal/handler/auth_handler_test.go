package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/middleware"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/notify"
	"github.com/orbita-academy/orbita-backend/internal/repository"
	"github.com/orbita-academy/orbita-backend/internal/response"
	"github.com/orbita-academy/orbita-backend/internal/service"
	"github.com/orbita-academy/orbita-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// memUserStore is a minimal in-memory registry for handler tests.
type memUserStore struct {
	nextID int
	users  map[int]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: map[int]*model.User{}}
}

func (s *memUserStore) add(u model.User) *model.User {
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &u
	return &u
}

func (s *memUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) List(_ context.Context, role model.Role, _, _ int) ([]model.User, int, error) {
	var out []model.User
	for id := 1; id < s.nextID; id++ {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	created := s.add(*u)
	u.ID = created.ID
	return nil
}

func (s *memUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(context.Background(), username)
	return err == nil, nil
}

func (s *memUserStore) Update(_ context.Context, u *model.User) error {
	stored, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	*stored = *u
	return nil
}

func (s *memUserStore) UpdatePermissions(_ context.Context, id int, permissions []string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Permissions = permissions
	return nil
}

func (s *memUserStore) SetActive(_ context.Context, id int, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = active
	return nil
}

// memSessionStore keeps sessions and caches in maps.
type memSessionStore struct {
	sessions map[int]string
	perms    map[int][]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[int]string{}, perms: map[int][]string{}}
}

func (s *memSessionStore) Save(_ context.Context, userID int, jti string, _ time.Duration) error {
	s.sessions[userID] = jti
	return nil
}

func (s *memSessionStore) Validate(_ context.Context, userID int, jti string) error {
	stored, ok := s.sessions[userID]
	if !ok {
		return repository.ErrNoSession
	}
	if stored != jti {
		return repository.ErrSessionInvalidated
	}
	return nil
}

func (s *memSessionStore) Clear(_ context.Context, userID int) error {
	delete(s.sessions, userID)
	return nil
}

func (s *memSessionStore) CachePermissions(_ context.Context, userID int, permissions []string, _ time.Duration) error {
	s.perms[userID] = permissions
	return nil
}

func (s *memSessionStore) GetPermissions(_ context.Context, userID int) ([]string, error) {
	p, ok := s.perms[userID]
	if !ok {
		return nil, repository.ErrNoCachedPerms
	}
	return p, nil
}

func (s *memSessionStore) ClearPermissions(_ context.Context, userID int) error {
	delete(s.perms, userID)
	return nil
}

type authFixture struct {
	router *gin.Engine
	users  *memUserStore
	tokens *service.TokenService
}

func newAuthFixture() *authFixture {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: 4,
	}
	users := newMemUserStore()
	sessions := newMemSessionStore()
	tokens := service.NewTokenService(cfg)
	access := service.NewAccessService(cfg, users, sessions, tokens, notify.NopNotifier{}, zerolog.Nop())
	h := NewAuthHandler(access)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.POST("/login", h.Login)
	r.POST("/logout", middleware.RequireAuth(tokens), middleware.CheckSessionRevocation(access), h.Logout)
	r.GET("/me", middleware.RequireAuth(tokens), middleware.CheckSessionRevocation(access), h.Me)

	return &authFixture{router: r, users: users, tokens: tokens}
}

func (f *authFixture) addUser(username, password string, role model.Role, active bool) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return f.users.add(model.User{
		Username:     username,
		Name:         "Test " + username,
		Role:         role,
		PasswordHash: string(hash),
		Permissions:  model.DefaultPermissionsFor(role),
		Active:       active,
	})
}

func (f *authFixture) postLogin(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(model.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func TestLoginEndpointSuccess(t *testing.T) {
	f := newAuthFixture()
	f.addUser("recruiter", "secret123", model.RoleHRManager, true)

	w := f.postLogin(t, "recruiter", "secret123")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var payload model.LoginResponse
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Token == "" {
		t.Error("token missing from login response")
	}
	if payload.User.Username != "recruiter" {
		t.Errorf("username: got %q", payload.User.Username)
	}
	if len(payload.Permissions) != len(model.DefaultPermissionsFor(model.RoleHRManager)) {
		t.Errorf("permissions: got %v", payload.Permissions)
	}
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	f := newAuthFixture()
	f.addUser("recruiter", "secret123", model.RoleHRManager, true)

	w := f.postLogin(t, "recruiter", "nope")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != string(response.ErrInvalidCredentials) {
		t.Errorf("error code: got %+v, want INVALID_CREDENTIALS", env.Error)
	}
}

func TestLoginEndpointInactiveAccount(t *testing.T) {
	f := newAuthFixture()
	f.addUser("recruiter", "secret123", model.RoleHRManager, false)

	w := f.postLogin(t, "recruiter", "secret123")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != string(response.ErrAccountInactive) {
		t.Errorf("error code: got %+v, want ACCOUNT_INACTIVE", env.Error)
	}
}

func TestLoginEndpointValidation(t *testing.T) {
	f := newAuthFixture()

	w := f.postLogin(t, "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != string(response.ErrValidation) {
		t.Errorf("error code: got %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestMeAndLogoutFlow(t *testing.T) {
	f := newAuthFixture()
	f.addUser("recruiter", "secret123", model.RoleHRManager, true)

	w := f.postLogin(t, "recruiter", "secret123")
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d", w.Code)
	}
	var payload model.LoginResponse
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	// /me with the fresh credential.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Logout, then the same credential is dead.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: got %d, want 401", rec.Code)
	}
}
