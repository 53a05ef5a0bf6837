package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/apperrors"
	"branch-inventory-api-server/internal/auth"
	"branch-inventory-api-server/internal/database"
	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/session"
)

// ── In-memory IdentityStore stub ─────────────────────────────────────────────

type stubIdentityStore struct {
	accounts         map[string]database.Account // by email
	profiles         map[string]models.User      // by userID
	createProfileErr error
	deletedAccounts  []string
}

func newStubIdentityStore() *stubIdentityStore {
	return &stubIdentityStore{
		accounts: make(map[string]database.Account),
		profiles: make(map[string]models.User),
	}
}

func (s *stubIdentityStore) CreateAccount(_ context.Context, account database.Account) error {
	if _, ok := s.accounts[account.Email]; ok {
		return apperrors.ErrDuplicateEmail
	}
	s.accounts[account.Email] = account
	return nil
}

func (s *stubIdentityStore) DeleteAccount(_ context.Context, userID string) error {
	s.deletedAccounts = append(s.deletedAccounts, userID)
	for email, account := range s.accounts {
		if account.UserID == userID {
			delete(s.accounts, email)
		}
	}
	return nil
}

func (s *stubIdentityStore) AccountByEmail(_ context.Context, email string) (database.Account, error) {
	account, ok := s.accounts[email]
	if !ok {
		return database.Account{}, apperrors.ErrInvalidCredentials
	}
	return account, nil
}

func (s *stubIdentityStore) CreateProfile(_ context.Context, user models.User) error {
	if s.createProfileErr != nil {
		return s.createProfileErr
	}
	s.profiles[user.UserID] = user
	return nil
}

func (s *stubIdentityStore) ProfileByUserID(_ context.Context, userID string) (models.User, error) {
	user, ok := s.profiles[userID]
	if !ok {
		return models.User{}, apperrors.ErrProfileMissing
	}
	return user, nil
}

func newAuthHandler(store *stubIdentityStore) *AuthHandler {
	return &AuthHandler{
		Store:    store,
		Sessions: session.NewRegistry(),
		Log:      zap.NewNop().Sugar(),
	}
}

func postJSON(w *httptest.ResponseRecorder, path, body string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestRegisterDuplicateEmailLeavesNoProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubIdentityStore()
	h := newAuthHandler(store)

	w := httptest.NewRecorder()
	h.Register(postJSON(w, "/api/v1/auth/register", `{"email":"dup@branch.example","password":"secret1","role":"branch_manager"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.profiles, 1)

	w = httptest.NewRecorder()
	h.Register(postJSON(w, "/api/v1/auth/register", `{"email":"dup@branch.example","password":"secret2","role":"branch_manager"}`))

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "This email is already registered. Please log in instead.", body["error"])
	assert.Len(t, store.profiles, 1)
}

func TestRegisterRollsBackAccountWhenProfileInsertFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubIdentityStore()
	store.createProfileErr = assert.AnError
	h := newAuthHandler(store)

	w := httptest.NewRecorder()
	h.Register(postJSON(w, "/api/v1/auth/register", `{"email":"new@branch.example","password":"secret1","role":"hq_admin"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "profile setup failed")

	// The compensating delete removed the orphaned identity.
	require.Len(t, store.deletedAccounts, 1)
	assert.Empty(t, store.accounts)
	assert.Empty(t, store.profiles)
}

func TestLoginOpensSessionAndReturnsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth.Init("test-secret", "1h")
	store := newStubIdentityStore()
	h := newAuthHandler(store)

	w := httptest.NewRecorder()
	h.Register(postJSON(w, "/api/v1/auth/register", `{"email":"mgr@branch.example","password":"secret1","role":"branch_manager"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.Login(postJSON(w, "/api/v1/auth/login", `{"email":"mgr@branch.example","password":"secret1"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, models.RoleBranchManager, body.User.Role)

	claims, err := auth.ParseJWT(body.Token)
	require.NoError(t, err)
	_, active := h.Sessions.Get(claims.SessionID)
	assert.True(t, active)
}

func TestLoginMissingProfileIsFatalAuthError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth.Init("test-secret", "1h")
	store := newStubIdentityStore()
	h := newAuthHandler(store)

	// Identity exists but its profile row is gone.
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	store.accounts["ghost@branch.example"] = database.Account{UserID: "ghost", Email: "ghost@branch.example", Password: hash}

	w := httptest.NewRecorder()
	h.Login(postJSON(w, "/api/v1/auth/login", `{"email":"ghost@branch.example","password":"secret1"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, h.Sessions.ActiveForUser("ghost"))
}

func TestLoginBadPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubIdentityStore()
	h := newAuthHandler(store)

	w := httptest.NewRecorder()
	h.Register(postJSON(w, "/api/v1/auth/register", `{"email":"mgr@branch.example","password":"secret1","role":"branch_manager"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.Login(postJSON(w, "/api/v1/auth/login", `{"email":"mgr@branch.example","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
