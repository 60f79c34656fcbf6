package notifyserver

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"aura-go/internal/auth"
	"aura-go/internal/config"
	"aura-go/internal/middleware"
	ws "aura-go/internal/websocket"
)

// WebSocketHandler 负责处理通知 WebSocket 连接请求。
type WebSocketHandler struct {
	hub         *ws.Hub
	blacklist   auth.TokenBlacklist
	cfg         config.Config
	checkOrigin func(r *http.Request) bool
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。blacklist may be nil.
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		blacklist:   blacklist,
		cfg:         cfg,
		checkOrigin: originChecker(cfg.APIServer.CORS.AllowedOrigins),
	}
}

// ServeWS authenticates the caller and upgrades the connection. Browsers cannot
// set headers on a WebSocket handshake, so the token comes from ?token= and
// falls back to the Authorization header.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		logrus.WithError(err).Debug("WebSocket 连接尝试失败：令牌无效")
		http.Error(w, "令牌无效", http.StatusUnauthorized)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "username": claims.Username}).Info("用户连接通知 WebSocket")
	ws.ServeWs(h.hub, claims.UserID, w, r, h.cfg.WebSocket, h.checkOrigin)
}

// originChecker accepts requests without an Origin header and origins in the
// CORS allow list. "*" allows everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
