package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/auth"
)

type ctxKey int

const ctxClaimsKey ctxKey = iota

var (
	errUnauthenticated = errors.New("unauthenticated")
	errForbidden       = errors.New("forbidden")
)

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := a.tokenSvc.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := getClaims(r.Context())
		if claims == nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}
		if claims.Role != authuc.RoleAdmin {
			respondError(w, http.StatusForbidden, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getClaims(ctx context.Context) *authuc.Claims {
	if claims, ok := ctx.Value(ctxClaimsKey).(*authuc.Claims); ok {
		return claims
	}
	return nil
}
