// Package application assembles the catalog view a caller is entitled
// to see.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	billingDomain "github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/internal/discovery/domain"
	identityDomain "github.com/venturebridge/venturebridge/internal/identity/domain"
)

// CatalogItem is one catalog entry as seen by a specific caller. Locked
// entries keep their title but mask the summary.
type CatalogItem struct {
	ID         uuid.UUID
	ProposerID uuid.UUID
	Title      string
	Summary    string
	CreatedAt  time.Time
	Locked     bool
}

// CatalogView is the caller-specific catalog.
type CatalogView struct {
	Items   []CatalogItem
	Total   int
	Visible int
}

// CatalogService lists ideas and applies tier visibility. Proposers see
// the whole catalog; sponsors see the fraction their tier buys, oldest
// first, with the remainder locked.
type CatalogService struct {
	ideas  domain.IdeaRepository
	logger *slog.Logger
	clock  func() time.Time
}

func NewCatalogService(ideas domain.IdeaRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		ideas:  ideas,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// ListIdea adds a proposal to the catalog.
func (s *CatalogService) ListIdea(ctx context.Context, proposerID uuid.UUID, title, summary string) (*domain.Idea, error) {
	idea, err := domain.NewIdea(proposerID, title, summary, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.ideas.Insert(ctx, idea); err != nil {
		return nil, fmt.Errorf("inserting idea: %w", err)
	}
	s.logger.InfoContext(ctx, "idea listed", "idea_id", idea.ID, "proposer_id", proposerID)
	return idea, nil
}

// Browse returns the catalog as the caller may see it. Sponsors pass
// the entitlement evaluated for them upstream; an inactive sponsor
// still gets the full listing, with every entry locked.
func (s *CatalogService) Browse(ctx context.Context, caller identityDomain.Identity, ent billingDomain.Entitlement) (*CatalogView, error) {
	ideas, err := s.ideas.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}

	visible := len(ideas)
	if caller.Role == identityDomain.RoleSponsor {
		visible = ent.VisibleCount(len(ideas))
	}

	view := &CatalogView{
		Items:   make([]CatalogItem, 0, len(ideas)),
		Total:   len(ideas),
		Visible: visible,
	}
	for i, idea := range ideas {
		item := CatalogItem{
			ID:         idea.ID,
			ProposerID: idea.ProposerID,
			Title:      idea.Title,
			Summary:    idea.Summary,
			CreatedAt:  idea.CreatedAt,
		}
		if i >= visible {
			item.Locked = true
			item.Summary = ""
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}
