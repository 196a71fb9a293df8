package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/apierr"
)

// CookieName carries the session token for browser clients.
const CookieName = "edukid_session"

const issuer = "edukid"

var ErrInvalidToken = errors.New("invalid token")

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: ttl}
}

func (a *AuthService) TTL() time.Duration { return a.ttl }

type Claims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueJWT signs a token for the user and the session it belongs to.
func (a *AuthService) IssueJWT(userID int64, role account.Role, sid string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:      string(role),
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// TokenFromRequest prefers the Authorization header over the cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate attaches an Identity when the request carries a valid token
// whose session is still live. Requests without one pass through anonymous.
func Authenticate(a *AuthService, sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := a.Parse(tok)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.Get(r.Context(), claims.SessionID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || uid != sess.UserID {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: sess.UserID, Role: sess.Role, SessionID: sess.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			apierr.Write(w, apierr.Unauthorized("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the token cookie; an empty token clears it.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	} else {
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}
