package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/config"
	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/repository"
	"github.com/iliyamo/lpg-distribution/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID          uint64             `json:"id"`
	Email       string             `json:"email"`
	Role        model.Role         `json:"role"`
	Permissions []model.Permission `json:"permissions"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates an account.  Every account starts with the USER role;
// agency, connection and staff roles are only reachable through approved
// applications, never chosen at signup.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		return failJSON(c, http.StatusBadRequest, "email and a password of at least 8 characters are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return failJSON(c, http.StatusConflict, "email already exists")
		}
		return failJSON(c, http.StatusInternalServerError, "create user failed")
	}

	u := model.User{ID: uid, Email: req.Email, Role: model.RoleUser}
	return h.issuePair(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return failJSON(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return failJSON(c, http.StatusUnauthorized, "invalid credentials")
		}
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return failJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return failJSON(c, http.StatusForbidden, "account disabled")
	}

	return h.issuePair(c, http.StatusOK, u)
}

// Refresh rotates the refresh token: validate by hash, revoke the old one,
// issue a new pair.  Claims are rebuilt from the current user row so a role
// promoted since login shows up immediately.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return failJSON(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return failJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "load user failed")
	}

	return h.issuePair(c, http.StatusOK, u)
}

// Logout revokes a single session when a refresh token is supplied, or all
// of the caller's sessions when called with only an access token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return failJSON(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return failJSON(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}

	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "provide refresh_token or an access token")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, actor.ID); err != nil {
		return failJSON(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity with the permission set derived from the
// role, so clients never hard-code a second copy of the role table.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	return okJSON(c, http.StatusOK, echo.Map{
		"id":          actor.ID,
		"email":       actor.Email,
		"role":        actor.Role,
		"agency_id":   actor.AgencyID,
		"customer_id": actor.CustomerID,
		"employee_id": actor.EmployeeID,
		"permissions": model.PermissionsFor(actor.Role),
	})
}

func (h *AuthHandler) issuePair(c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "issue refresh failed")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return failJSON(c, http.StatusInternalServerError, "save refresh failed")
	}

	return c.JSON(status, echo.Map{"success": true, "data": authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role, Permissions: model.PermissionsFor(u.Role)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}})
}
