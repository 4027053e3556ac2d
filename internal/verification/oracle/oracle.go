// Package oracle defines the media classification port used by the
// verification coordinator and its HTTP implementation.
package oracle

import (
	"context"

	domainerrors "nagrik/pkg/domain-errors"
)

// Label is a single classification returned by an oracle for a media item.
type Label struct {
	// Description is the raw label text as returned by the oracle.
	Description string
	// Score is the oracle's confidence in [0, 1].
	Score float64
}

// Oracle classifies a media item into labels with confidence scores.
// Implementations must be safe for concurrent use.
type Oracle interface {
	Classify(ctx context.Context, mediaURL string) ([]Label, error)
}

// Disabled is the no-oracle deployment mode: every classification request
// fails as unavailable.
type Disabled struct{}

func (Disabled) Classify(context.Context, string) ([]Label, error) {
	return nil, domainerrors.New(domainerrors.CodeUnavailable, "no oracle configured")
}
