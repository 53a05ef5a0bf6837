package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/apperrors"
	"branch-inventory-api-server/internal/auth"
	"branch-inventory-api-server/internal/database"
	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/session"
)

// IdentityStore is the slice of the store the auth handler uses.
type IdentityStore interface {
	CreateAccount(ctx context.Context, account database.Account) error
	DeleteAccount(ctx context.Context, userID string) error
	AccountByEmail(ctx context.Context, email string) (database.Account, error)
	CreateProfile(ctx context.Context, user models.User) error
	ProfileByUserID(ctx context.Context, userID string) (models.User, error)
}

type AuthHandler struct {
	Store    IdentityStore
	Sessions *session.Registry
	Log      *zap.SugaredLogger
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=branch_manager hq_admin"`
}

// Register creates the identity account, then the profile row carrying the
// role. If the profile insert fails the account is deleted again, so no
// orphaned identity is left behind.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	userID := uuid.New().String()
	now := time.Now()

	err = h.Store.CreateAccount(c.Request.Context(), database.Account{
		UserID:    userID,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrDuplicateEmail.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profile := models.User{
		UserID:    userID,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: now,
	}
	if err := h.Store.CreateProfile(c.Request.Context(), profile); err != nil {
		// Compensate so the identity does not outlive its missing profile.
		if delErr := h.Store.DeleteAccount(c.Request.Context(), userID); delErr != nil {
			h.Log.Errorw("failed to roll back account after profile insert failure",
				"userID", userID, "err", delErr)
		}
		pce := &apperrors.ProfileCreationError{Email: req.Email, Err: err}
		c.JSON(http.StatusInternalServerError, gin.H{"error": pce.Error()})
		return
	}

	h.Log.Infow("user registered", "userID", userID, "role", req.Role)
	c.JSON(http.StatusCreated, gin.H{"status": "success", "user": profile})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates the identity, loads the profile row, and opens a
// session. A missing profile after a successful credential check is a fatal
// auth error, not a blank user.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Store.AccountByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !auth.CheckPasswordHash(req.Password, account.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrInvalidCredentials.Error()})
		return
	}

	user, err := h.Store.ProfileByUserID(c.Request.Context(), account.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileMissing) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrProfileMissing.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sess := h.Sessions.SignedIn(user)
	token, err := auth.GenerateJWT(user.UserID, user.Email, user.Role, sess.ID)
	if err != nil {
		h.Sessions.SignedOut(sess.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.Log.Infow("user signed in", "userID", user.UserID, "sessionID", sess.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Logout ends the current session. The registry event tears down the feed
// channel and cart for this session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString("session_id")
	h.Sessions.SignedOut(sessionID)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.Store.ProfileByUserID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
