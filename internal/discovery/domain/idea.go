// Package domain holds the discovery catalog: the ideas proposers list
// for sponsors to browse.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Idea is one listed proposal.
type Idea struct {
	ID         uuid.UUID
	ProposerID uuid.UUID
	Title      string
	Summary    string
	CreatedAt  time.Time
}

// ErrInvalidIdea is returned for a listing without a title or summary.
var ErrInvalidIdea = errors.New("an idea needs a title and a summary")

// NewIdea lists a proposal at now.
func NewIdea(proposerID uuid.UUID, title, summary string, now time.Time) (*Idea, error) {
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)
	if title == "" || summary == "" {
		return nil, ErrInvalidIdea
	}
	return &Idea{
		ID:         uuid.New(),
		ProposerID: proposerID,
		Title:      title,
		Summary:    summary,
		CreatedAt:  now,
	}, nil
}

// IdeaRepository persists the catalog. ListAll returns ideas oldest
// first so the entitlement quota always reveals a stable prefix.
type IdeaRepository interface {
	Insert(ctx context.Context, idea *Idea) error
	ListAll(ctx context.Context) ([]*Idea, error)
}
