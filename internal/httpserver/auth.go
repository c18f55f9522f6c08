// internal/httpserver/auth.go
//
// Bridge tokens.
// The web view receives a token at launch and sends it with every call
// (Authorization header, ?token= on the first page load, or the cookie set from it).
// Tokens are HS256 JWTs whose subject is the launch ID, so a token from an
// earlier process is rejected even when the secret is configured.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/pointbattle/internal/session"
)

const tokenIssuer = "pointbattle"

// Tokens signs and verifies bridge tokens.
type Tokens struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
}

// NewTokens returns a signer using secret. ttl bounds token lifetime.
func NewTokens(secret string, ttl time.Duration, cookieName string) *Tokens {
	if cookieName == "" {
		cookieName = "pointbattle_token"
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, cookieName: cookieName}
}

// Issue creates a token bound to the given launch ID.
func (t *Tokens) Issue(launchID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   launchID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// verify checks the signature, expiry and launch binding.
func (t *Tokens) verify(tokenStr, launchID string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	if claims.Subject != launchID {
		return errors.New("token belongs to another launch")
	}
	return nil
}

// requireAuth enforces a valid token for the current launch.
// A token passed as ?token= is moved into a cookie so later calls can drop it,
// replacing any cookie left over from an earlier launch.
func (t *Tokens) requireAuth(sess *session.State) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidates := t.tokensFrom(r)
			if len(candidates) == 0 {
				writeJSON(w, http.StatusUnauthorized, apiError{Error: "unauthorized", Message: "Unauthorized"})
				return
			}
			for _, c := range candidates {
				if err := t.verify(c.value, sess.ID()); err != nil {
					continue
				}
				if c.fromQuery {
					t.setCookie(w, c.value)
				}
				next.ServeHTTP(w, r)
				return
			}
			writeJSON(w, http.StatusUnauthorized, apiError{Error: "invalid_token", Message: "Unauthorized"})
		})
	}
}

type tokenCandidate struct {
	value     string
	fromQuery bool
}

// tokensFrom collects the tokens a request carries: the Authorization header,
// the token query parameter, then the auth cookie. The query parameter comes
// before the cookie because it is the one issued to the current launch.
func (t *Tokens) tokensFrom(r *http.Request) []tokenCandidate {
	var out []tokenCandidate
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		if v := strings.TrimSpace(a[7:]); v != "" {
			out = append(out, tokenCandidate{value: v})
		}
	}
	if q := r.URL.Query().Get("token"); q != "" {
		out = append(out, tokenCandidate{value: q, fromQuery: true})
	}
	if c, err := r.Cookie(t.cookieName); err == nil && c.Value != "" {
		out = append(out, tokenCandidate{value: c.Value})
	}
	return out
}

// setCookie writes the token cookie for the loopback origin.
func (t *Tokens) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(t.ttl),
	})
}
