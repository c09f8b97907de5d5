package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/config"
	"github.com/agrolink/marketplace/internal/model"
	"github.com/agrolink/marketplace/internal/repository"
	"github.com/agrolink/marketplace/internal/utils"
)

// AuthHandler bundles dependencies for the register and login endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"` // business | customer | seller
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registeredUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	UserID      uint64 `json:"user_id"`
	Username    string `json:"username"`
	UserType    string `json:"user_type"`
}

// Register creates a user account.  The password is stored as a bcrypt
// hash only; the response echoes the profile without it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return utils.Fail(c, http.StatusUnprocessableEntity, "username, email and password are required")
	}
	if !model.ValidRole(req.UserType) {
		return utils.Fail(c, http.StatusUnprocessableEntity, "user_type must be business, customer or seller")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, req.UserType, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return utils.Fail(c, http.StatusBadRequest, "username already exists")
		}
		if err == repository.ErrEmailExists {
			return utils.Fail(c, http.StatusBadRequest, "email already exists")
		}
		return utils.Fail(c, http.StatusInternalServerError, "create user failed")
	}

	return utils.Respond(c, http.StatusCreated, "user registered successfully", registeredUser{
		ID:       uid,
		Username: req.Username,
		Email:    req.Email,
		UserType: req.UserType,
	})
}

// Login verifies credentials and issues a bearer access token carrying
// the user id, username and role.  Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return utils.Fail(c, http.StatusUnprocessableEntity, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return h.invalidCredentials(c)
		}
		return utils.Fail(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return h.invalidCredentials(c)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "issue token failed")
	}

	return utils.Respond(c, http.StatusOK, "login successful", tokenResp{
		AccessToken: access.Token,
		TokenType:   "bearer",
		ExpiresIn:   h.Cfg.AccessTTLMin * 60,
		UserID:      u.ID,
		Username:    u.Username,
		UserType:    u.Role,
	})
}

func (h *AuthHandler) invalidCredentials(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return utils.Fail(c, http.StatusUnauthorized, "incorrect username or password")
}

// Me returns the authenticated user's token claims.
func (h *AuthHandler) Me(c echo.Context) error {
	return utils.Respond(c, http.StatusOK, "me", map[string]any{
		"user_id":  c.Get("user_id"),
		"username": c.Get("username"),
		"role":     c.Get("role"),
	})
}
