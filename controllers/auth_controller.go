package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freedeaths/SUT-OpenAPI-Blog/middleware"
	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

const tokenDuration = 24 * time.Hour

// AuthController handles registration, login and account maintenance.
type AuthController struct {
	store storage.Store
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(store storage.Store) *AuthController {
	return &AuthController{store: store}
}

// Register creates a new active account.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Bio      string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to process password")
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Bio:          utils.Sanitize(req.Bio),
		IsActive:     true,
	}

	err = a.store.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetUserByUsername(username); err == nil {
			return errDuplicateAccount
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := tx.GetUserByEmail(email); err == nil {
			return errDuplicateAccount
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.CreateUser(&user)
	})
	if err != nil {
		if errors.Is(err, errDuplicateAccount) {
			utils.Error(ctx, http.StatusConflict, 40910, "username or email already taken")
			return
		}
		utils.Sugar.Errorf("register failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create account")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

var errDuplicateAccount = errors.New("duplicate account")

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}

	var user *models.User
	err := a.store.Atomic(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUserByUsername(strings.TrimSpace(req.Username))
		if err != nil {
			return err
		}
		if !utils.CheckPassword(u.PasswordHash, req.Password) {
			return errBadCredentials
		}
		if !u.IsActive {
			return errInactiveAccount
		}
		now := time.Now().UTC()
		u.LastLoginAt = &now
		if err := tx.SaveUser(u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, errBadCredentials) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
			return
		}
		if errors.Is(err, errInactiveAccount) {
			utils.Error(ctx, http.StatusForbidden, 40310, "account is deactivated")
			return
		}
		utils.Sugar.Errorf("login failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "login failed")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

var (
	errBadCredentials  = errors.New("bad credentials")
	errInactiveAccount = errors.New("inactive account")
)

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)
	var user *models.User
	err := a.store.View(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile updates mutable profile fields of the authenticated user.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Bio      *string `json:"bio"`
		Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}

	userID := middleware.CurrentUserID(ctx)
	var user *models.User
	err := a.store.Atomic(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if req.Bio != nil {
			u.Bio = utils.Sanitize(*req.Bio)
		}
		if req.Password != nil {
			hash, err := utils.HashPassword(*req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if err := tx.SaveUser(u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Sugar.Errorf("profile update failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update profile")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// Deactivate flips the account inactive. Content authored by the user stays in
// the store but drops out of public reads.
func (a *AuthController) Deactivate(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)
	err := a.store.Atomic(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		u.IsActive = false
		return tx.SaveUser(u)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Sugar.Errorf("deactivate failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to deactivate account")
		return
	}
	utils.Success(ctx, gin.H{"deactivated": true})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 {
		token := strings.TrimSpace(parts[1])
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"logged_out": true})
}
