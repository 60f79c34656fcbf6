package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"aura-go/internal/auth"
	"aura-go/internal/config"
	"aura-go/internal/session"
)

// AuthMiddleware 验证 Bearer JWT，并将 session.Session 放入请求上下文。
func AuthMiddleware(authCfg config.AuthConfig, blacklist auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w, "授权头部缺失或格式无效，应为 Bearer {token}")
				return
			}

			claims, err := auth.ValidateToken(r.Context(), tokenString, authCfg.JWTSecretKey, blacklist)
			if err != nil {
				logrus.WithError(err).Debug("rejected token")
				writeUnauthorized(w, "令牌无效")
				return
			}

			ctx := session.NewContext(r.Context(), SessionFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	headerParts := strings.Fields(r.Header.Get("Authorization"))
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", false
	}
	return headerParts[1], true
}

// SessionFromClaims converts validated claims into a request session.
func SessionFromClaims(claims *auth.Claims) *session.Session {
	s := &session.Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "category": "unauthorized"})
}
