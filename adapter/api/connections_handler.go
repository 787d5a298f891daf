package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/application/commands"
	"github.com/venturebridge/venturebridge/internal/connections/application/queries"
	connectionsDomain "github.com/venturebridge/venturebridge/internal/connections/domain"
)

// ConnectionsHandler exposes the connection request workflow.
type ConnectionsHandler struct {
	sendRequest     *commands.SendRequestHandler
	respondRequest  *commands.RespondRequestHandler
	pendingInbox    *queries.PendingInboxHandler
	sentRequests    *queries.SentRequestsHandler
	getRequest      *queries.GetRequestHandler
	listConnections *queries.ListConnectionsHandler
	logger          *slog.Logger
}

// ConnectionsHandlerConfig holds dependencies for the connections handler.
type ConnectionsHandlerConfig struct {
	SendRequest     *commands.SendRequestHandler
	RespondRequest  *commands.RespondRequestHandler
	PendingInbox    *queries.PendingInboxHandler
	SentRequests    *queries.SentRequestsHandler
	GetRequest      *queries.GetRequestHandler
	ListConnections *queries.ListConnectionsHandler
	Logger          *slog.Logger
}

func NewConnectionsHandler(cfg ConnectionsHandlerConfig) *ConnectionsHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ConnectionsHandler{
		sendRequest:     cfg.SendRequest,
		respondRequest:  cfg.RespondRequest,
		pendingInbox:    cfg.PendingInbox,
		sentRequests:    cfg.SentRequests,
		getRequest:      cfg.GetRequest,
		listConnections: cfg.ListConnections,
		logger:          cfg.Logger,
	}
}

type sendRequestBody struct {
	ReceiverID string `json:"receiverId"`
}

type requestResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

func toRequestResponse(req *connectionsDomain.ConnectionRequest) requestResponse {
	return requestResponse{
		ID:         req.ID().String(),
		SenderID:   req.SenderID().String(),
		ReceiverID: req.ReceiverID().String(),
		Status:     string(req.Status()),
		CreatedAt:  req.CreatedAt().UTC().Format(time.RFC3339),
	}
}

// SendRequest handles POST /api/v1/connections/requests.
func (h *ConnectionsHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	var body sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}
	receiverID, err := uuid.Parse(body.ReceiverID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_receiver", "receiverId must be a UUID")
		return
	}

	result, err := h.sendRequest.Handle(r.Context(), commands.SendRequestCommand{
		SenderID:   identity.UserID,
		ReceiverID: receiverID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     result.RequestID.String(),
		"status": string(result.Status),
	})
}

type respondRequestBody struct {
	Action string `json:"action"`
}

// RespondRequest handles POST /api/v1/connections/requests/{requestID}/respond.
func (h *ConnectionsHandler) RespondRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("requestID"))
	if err != nil {
		writeDomainError(w, connectionsDomain.ErrRequestNotFound)
		return
	}

	var body respondRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}
	if body.Action != "accept" && body.Action != "reject" {
		writeError(w, http.StatusBadRequest, "invalid_action", `action must be "accept" or "reject"`)
		return
	}

	result, err := h.respondRequest.Handle(r.Context(), commands.RespondRequestCommand{
		RequestID:   requestID,
		ResponderID: identity.UserID,
		Accept:      body.Action == "accept",
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"status": string(result.Status)}
	if result.ConnectionID != nil {
		resp["connectionId"] = result.ConnectionID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// PendingInbox handles GET /api/v1/connections/requests.
func (h *ConnectionsHandler) PendingInbox(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, func(userID uuid.UUID) ([]*connectionsDomain.ConnectionRequest, error) {
		return h.pendingInbox.Handle(r.Context(), userID)
	})
}

// SentRequests handles GET /api/v1/connections/requests/sent.
func (h *ConnectionsHandler) SentRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, func(userID uuid.UUID) ([]*connectionsDomain.ConnectionRequest, error) {
		return h.sentRequests.Handle(r.Context(), userID)
	})
}

// GetRequest handles GET /api/v1/connections/requests/{requestID}. Only
// the two parties of a request may read it.
func (h *ConnectionsHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("requestID"))
	if err != nil {
		writeDomainError(w, connectionsDomain.ErrRequestNotFound)
		return
	}

	req, err := h.getRequest.Handle(r.Context(), requestID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.SenderID() != identity.UserID && req.ReceiverID() != identity.UserID {
		writeDomainError(w, connectionsDomain.ErrRequestNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *ConnectionsHandler) listRequests(w http.ResponseWriter, r *http.Request,
	list func(uuid.UUID) ([]*connectionsDomain.ConnectionRequest, error),
) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	reqs, err := list(identity.UserID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing connection requests", "error", err)
		writeDomainError(w, err)
		return
	}

	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// ListConnections handles GET /api/v1/connections.
func (h *ConnectionsHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	conns, err := h.listConnections.Handle(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type connectionResponse struct {
		ID        string `json:"id"`
		PeerID    string `json:"peerId"`
		CreatedAt string `json:"createdAt"`
	}
	out := make([]connectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, connectionResponse{
			ID:        conn.ID.String(),
			PeerID:    conn.Peer(identity.UserID).String(),
			CreatedAt: conn.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": out})
}
