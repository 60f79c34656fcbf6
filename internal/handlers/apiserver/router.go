package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"aura-go/internal/auth"
	"aura-go/internal/config"
	"aura-go/internal/metrics"
	"aura-go/internal/middleware"
	"aura-go/internal/services"
)

// Deps bundles what the REST API needs.
type Deps struct {
	Auth      services.AuthService
	Profiles  services.ProfileService
	Friends   services.FriendService
	Proposals services.ProposalService
	Blacklist auth.TokenBlacklist
	AuthCfg   config.AuthConfig
	Storage   config.StorageConfig
}

// NewRouter wires every REST route. Everything below /api/v1 requires a Bearer token.
func NewRouter(d Deps) *mux.Router {
	authHandler := NewAuthHandler(d.Auth)
	profileHandler := NewProfileHandler(d.Profiles, d.Storage)
	friendHandler := NewFriendHandler(d.Friends)
	proposalHandler := NewProposalHandler(d.Proposals)

	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	// 公开路由
	r.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// 需要认证的路由
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(d.AuthCfg, d.Blacklist))

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	api.HandleFunc("/profiles/me", profileHandler.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/profiles/me", profileHandler.UpdateMe).Methods(http.MethodPut)
	api.HandleFunc("/profiles/me/avatar", profileHandler.UploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/profiles/search", profileHandler.Search).Methods(http.MethodGet)

	api.HandleFunc("/friends", friendHandler.ListFriends).Methods(http.MethodGet)
	api.HandleFunc("/friend-requests", friendHandler.SendFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests", friendHandler.ListPendingRequests).Methods(http.MethodGet)
	api.HandleFunc("/friend-requests/{requestID:[0-9]+}/accept", friendHandler.AcceptFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests/{requestID:[0-9]+}/reject", friendHandler.RejectFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/offline-friends", friendHandler.AddOfflineFriend).Methods(http.MethodPost)
	api.HandleFunc("/offline-friends/{id:[0-9]+}", friendHandler.RemoveOfflineFriend).Methods(http.MethodDelete)

	api.HandleFunc("/proposals", proposalHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/proposals", proposalHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/proposals/{id:[0-9]+}/votes", proposalHandler.CastVote).Methods(http.MethodPost)
	api.HandleFunc("/proposals/{id:[0-9]+}/resolve", proposalHandler.Resolve).Methods(http.MethodPost)
	api.HandleFunc("/aura-history", proposalHandler.AuraHistory).Methods(http.MethodGet)

	api.HandleFunc("/leaderboard/global", profileHandler.GlobalLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/friends", friendHandler.FriendLeaderboard).Methods(http.MethodGet)

	return r
}
