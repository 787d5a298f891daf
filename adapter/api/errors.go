package api

import (
	"errors"
	"net/http"

	billingDomain "github.com/venturebridge/venturebridge/internal/billing/domain"
	connectionsDomain "github.com/venturebridge/venturebridge/internal/connections/domain"
	discoveryDomain "github.com/venturebridge/venturebridge/internal/discovery/domain"
	identityDomain "github.com/venturebridge/venturebridge/internal/identity/domain"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeDomainError maps domain errors onto the API error contract.
// A forged payment signature is deliberately a 400, not a 401: the
// request is well-formed garbage, not a failed user login.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identityDomain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
	case errors.Is(err, billingDomain.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "invalid_signature", "Payment signature verification failed")
	case errors.Is(err, billingDomain.ErrUnknownTier):
		writeError(w, http.StatusBadRequest, "unknown_tier", "The requested tier does not exist")
	case errors.Is(err, billingDomain.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "subscription_not_found", "No subscription found")
	case errors.Is(err, connectionsDomain.ErrSelfConnection):
		writeError(w, http.StatusBadRequest, "self_connection", "You cannot send a request to yourself")
	case errors.Is(err, connectionsDomain.ErrDuplicateRequest):
		writeError(w, http.StatusBadRequest, "duplicate_request", "A pending request for this pair already exists")
	case errors.Is(err, connectionsDomain.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "request_not_found", "Connection request not found")
	case errors.Is(err, connectionsDomain.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "already_resolved", "This request has already been answered")
	case errors.Is(err, connectionsDomain.ErrNotReceiver):
		writeError(w, http.StatusForbidden, "not_receiver", "Only the receiver can answer a request")
	case errors.Is(err, discoveryDomain.ErrInvalidIdea):
		writeError(w, http.StatusBadRequest, "invalid_idea", "An idea needs a title and a summary")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
	}
}
