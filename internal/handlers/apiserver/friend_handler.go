package apiserver

import (
	"net/http"

	"aura-go/internal/services"
)

// FriendHandler handles friend requests, the friend list and offline friends.
type FriendHandler struct {
	friendService services.FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(fs services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

// SendFriendRequestPayload defines the expected JSON body for sending a friend request.
type SendFriendRequestPayload struct {
	RecipientID uint `json:"recipientId" validate:"required"`
}

// AddOfflineFriendPayload is the body of POST /api/v1/offline-friends.
type AddOfflineFriendPayload struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

// SendFriendRequest handles POST /api/v1/friend-requests
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var payload SendFriendRequestPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	request, err := h.friendService.SendFriendRequest(r.Context(), sess.UserID, payload.RecipientID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, request)
}

// ListPendingRequests handles GET /api/v1/friend-requests. It lists pending
// requests sent and received by the caller.
func (h *FriendHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	requests, err := h.friendService.ListPendingRequests(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// AcceptFriendRequest handles POST /api/v1/friend-requests/{requestID}/accept
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	if err := h.friendService.AcceptFriendRequest(r.Context(), sess.UserID, requestID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "好友请求已接受"})
}

// RejectFriendRequest handles POST /api/v1/friend-requests/{requestID}/reject
func (h *FriendHandler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	if err := h.friendService.RejectFriendRequest(r.Context(), sess.UserID, requestID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "好友请求已拒绝"})
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	friends, err := h.friendService.ListFriends(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// FriendLeaderboard handles GET /api/v1/leaderboard/friends
func (h *FriendHandler) FriendLeaderboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	entries, err := h.friendService.FriendLeaderboard(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, entries)
}

// AddOfflineFriend handles POST /api/v1/offline-friends
func (h *FriendHandler) AddOfflineFriend(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var payload AddOfflineFriendPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	friend, err := h.friendService.AddOfflineFriend(r.Context(), sess.UserID, payload.Name, payload.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, friend)
}

// RemoveOfflineFriend handles DELETE /api/v1/offline-friends/{id}
func (h *FriendHandler) RemoveOfflineFriend(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.friendService.RemoveOfflineFriend(r.Context(), sess.UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
