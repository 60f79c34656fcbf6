package apiserver

import (
	"net/http"
	"strconv"

	"aura-go/internal/services"
)

// ProposalHandler exposes the aura proposal workflow.
type ProposalHandler struct {
	proposalService services.ProposalService
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(ps services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: ps}
}

// CreateProposalPayload is the body of POST /api/v1/proposals. Value must be
// a JSON integer; a fraction or string fails decoding.
type CreateProposalPayload struct {
	RecipientID        uint   `json:"recipientId" validate:"required"`
	IsRecipientOffline bool   `json:"isRecipientOffline"`
	Value              *int64 `json:"value" validate:"required"`
	Reason             string `json:"reason" validate:"max=500"`
}

// CastVotePayload is the body of POST /api/v1/proposals/{id}/votes.
type CastVotePayload struct {
	Vote *bool `json:"vote" validate:"required"`
}

// Create handles POST /api/v1/proposals
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var payload CreateProposalPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	proposal, err := h.proposalService.CreateProposal(r.Context(), sess.UserID, payload.RecipientID, payload.IsRecipientOffline, *payload.Value, payload.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, proposal)
}

// List handles GET /api/v1/proposals
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	views, err := h.proposalService.ListProposals(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, views)
}

// CastVote handles POST /api/v1/proposals/{id}/votes
func (h *ProposalHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload CastVotePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	vote, err := h.proposalService.CastVote(r.Context(), proposalID, sess.UserID, *payload.Vote)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, vote)
}

// Resolve handles POST /api/v1/proposals/{id}/resolve. It only closes a
// proposal the sweeper would close, anything earlier is a 409.
func (h *ProposalHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	proposal, err := h.proposalService.ResolveIfDue(r.Context(), proposalID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, proposal)
}

// AuraHistory handles GET /api/v1/aura-history?recipientId=&offline=
func (h *ProposalHandler) AuraHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	recipientID, err := strconv.ParseUint(query.Get("recipientId"), 10, 32)
	if err != nil || recipientID == 0 {
		writeJSONError(w, "缺少或无效的 recipientId", categoryValidation, http.StatusBadRequest)
		return
	}
	offline := false
	if raw := query.Get("offline"); raw != "" {
		if offline, err = strconv.ParseBool(raw); err != nil {
			writeJSONError(w, "无效的 offline 参数", categoryValidation, http.StatusBadRequest)
			return
		}
	}

	views, err := h.proposalService.AuraHistory(r.Context(), sess.UserID, uint(recipientID), offline)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, views)
}
