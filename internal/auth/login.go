package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/apierr"
	authmw "github.com/mind-engage/edukid/internal/auth/middleware"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/schema"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRoleMismatch         = errors.New("invalid role for this user")
	ErrWrongPicturePassword = errors.New("wrong picture password")
	ErrInvalidPassword      = errors.New("invalid password")
)

type LoginRequest struct {
	Username        string       `json:"username"`
	Password        string       `json:"password"`
	PicturePassword []string     `json:"picturePassword"`
	Role            account.Role `json:"role"`
}

var loginSchema = &schema.Schema{
	Name: "login-request",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"username":        map[string]any{"type": "string", "minLength": 1},
			"password":        map[string]any{"type": "string"},
			"picturePassword": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"role":            map[string]any{"type": "string", "enum": []any{"student", "teacher", "parent"}},
		},
		"required": []any{"username", "role"},
	},
}

// CheckLogin resolves the user behind req. A student who sends a picture
// password, even an empty one, is checked against it; everyone else against
// their password hash.
func CheckLogin(ctx context.Context, users account.Store, req LoginRequest) (account.User, error) {
	u, err := users.GetByUsername(ctx, req.Username)
	if errors.Is(err, account.ErrNotFound) {
		return account.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return account.User{}, err
	}
	if u.Role != req.Role {
		return account.User{}, ErrRoleMismatch
	}

	if req.Role == account.RoleStudent && req.PicturePassword != nil {
		ok, err := u.CheckPicturePassword(req.PicturePassword)
		if err != nil && !errors.Is(err, account.ErrNoPicturePassword) {
			return account.User{}, err
		}
		if !ok {
			return account.User{}, ErrWrongPicturePassword
		}
		return u, nil
	}

	ok, err := u.CheckPassword(req.Password)
	if err != nil && !errors.Is(err, account.ErrNoPassword) {
		return account.User{}, err
	}
	if !ok {
		return account.User{}, ErrInvalidPassword
	}
	return u, nil
}

// Deps is what the login, logout and me handlers share.
type Deps struct {
	Users        account.Store
	Auth         *authmw.AuthService
	Sessions     authmw.SessionStore
	CookieSecure bool
	Log          *logger.Logger
}

func (d Deps) log() *logger.Logger {
	if d.Log == nil {
		return logger.Nop()
	}
	return d.Log
}

func loginError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apierr.Unauthorized("Invalid credentials")
	case errors.Is(err, ErrRoleMismatch):
		return apierr.Unauthorized("Invalid role for this user")
	case errors.Is(err, ErrWrongPicturePassword):
		return apierr.Unauthorized("Wrong picture password")
	case errors.Is(err, ErrInvalidPassword):
		return apierr.Unauthorized("Invalid password")
	}
	return err
}

// POST /login  { "username": "...", "password": "..." | "picturePassword": [...], "role": "..." }
func LoginHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}
		if err := schema.Validate(loginSchema, raw); err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}
		var req LoginRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}

		u, err := CheckLogin(r.Context(), d.Users, req)
		if err != nil {
			mapped := loginError(err)
			if apierr.StatusOf(mapped) >= http.StatusInternalServerError {
				d.log().Error("login failed", "username", req.Username, "err", err)
			} else {
				d.log().Info("login rejected", "username", req.Username, "reason", err.Error())
			}
			apierr.Write(w, mapped)
			return
		}

		sess, err := d.Sessions.Create(r.Context(), u.ID, u.Role)
		if err != nil {
			d.log().Error("create session", "user_id", u.ID, "err", err)
			apierr.Write(w, err)
			return
		}
		tok, err := d.Auth.IssueJWT(u.ID, u.Role, sess.ID)
		if err != nil {
			d.log().Error("issue token", "user_id", u.ID, "err", err)
			apierr.Write(w, err)
			return
		}
		authmw.SetSessionCookie(w, tok, d.Auth.TTL(), d.CookieSecure)
		w.Header().Set("Authorization", "Bearer "+tok)
		respondJSON(w, http.StatusOK, u)
	}
}

// POST /logout. Always succeeds; an anonymous caller just gets the cookie cleared.
func LogoutHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := authmw.IdentityFromContext(r.Context()); ok {
			if err := d.Sessions.Delete(r.Context(), id.SessionID); err != nil {
				d.log().Error("delete session", "session_id", id.SessionID, "err", err)
				apierr.Write(w, err)
				return
			}
		}
		authmw.SetSessionCookie(w, "", 0, d.CookieSecure)
		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// GET /me
func MeHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authmw.IdentityFromContext(r.Context())
		if !ok {
			apierr.Write(w, apierr.Unauthorized("Not authenticated"))
			return
		}
		u, err := d.Users.GetByID(r.Context(), id.UserID)
		if errors.Is(err, account.ErrNotFound) {
			apierr.Write(w, apierr.Unauthorized("User not found"))
			return
		}
		if err != nil {
			d.log().Error("load user", "user_id", id.UserID, "err", err)
			apierr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
