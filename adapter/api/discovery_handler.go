package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	discoveryApp "github.com/venturebridge/venturebridge/internal/discovery/application"
	identityDomain "github.com/venturebridge/venturebridge/internal/identity/domain"
)

// DiscoveryHandler exposes the idea catalog.
type DiscoveryHandler struct {
	catalog *discoveryApp.CatalogService
	logger  *slog.Logger
}

func NewDiscoveryHandler(catalog *discoveryApp.CatalogService, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{catalog: catalog, logger: logger}
}

type catalogItemResponse struct {
	ID         string `json:"id"`
	ProposerID string `json:"proposerId"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	CreatedAt  string `json:"createdAt"`
	Locked     bool   `json:"locked"`
}

// Browse handles GET /api/v1/discovery.
func (h *DiscoveryHandler) Browse(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	ent, _ := EntitlementFromContext(r.Context())
	view, err := h.catalog.Browse(r.Context(), identity, ent)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "browsing catalog", "error", err)
		writeDomainError(w, err)
		return
	}

	items := make([]catalogItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, catalogItemResponse{
			ID:         item.ID.String(),
			ProposerID: item.ProposerID.String(),
			Title:      item.Title,
			Summary:    item.Summary,
			CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
			Locked:     item.Locked,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   items,
		"total":   view.Total,
		"visible": view.Visible,
	})
}

type listIdeaBody struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ListIdea handles POST /api/v1/ideas. Only proposers may list.
func (h *DiscoveryHandler) ListIdea(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}
	if identity.Role != identityDomain.RoleProposer {
		writeError(w, http.StatusForbidden, "proposers_only", "Only proposers can list ideas")
		return
	}

	var body listIdeaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}

	idea, err := h.catalog.ListIdea(r.Context(), identity.UserID, body.Title, body.Summary)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    idea.ID.String(),
		"title": idea.Title,
	})
}
