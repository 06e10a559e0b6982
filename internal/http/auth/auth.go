// Package auth verifies bearer tokens and puts the caller in the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/respond"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 7 * 24 * time.Hour

type callerKey struct{}

type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: defaultTTL, now: time.Now}
}

// Issue signs a token for the account. Used by operator tooling and tests;
// end-user sign-in lives elsewhere.
func (a *Authenticator) Issue(acc *account.Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(acc.ID, 10),
		"email": acc.Email,
		"exp":   a.now().Add(a.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

func (a *Authenticator) Verify(token string) (transfer.Caller, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return transfer.Caller{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return transfer.Caller{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return transfer.Caller{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)

	return transfer.Caller{AccountID: id, Email: email}, nil
}

// Middleware resolves the bearer token, if any. Requests without one carry
// the anonymous caller; a bad token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "expected a bearer token")
			return
		}

		caller, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Required rejects anonymous requests.
func Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFrom(r.Context()).Authenticated() {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func WithCaller(ctx context.Context, c transfer.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller of the request, anonymous when none was set.
func CallerFrom(ctx context.Context) transfer.Caller {
	c, _ := ctx.Value(callerKey{}).(transfer.Caller)
	return c
}
