package services

import (
	"context"

	"github.com/desertthunder/greekdeck/internal/models"
)

// Generator produces card content for a Greek word.
type Generator interface {
	// Generate returns structured card content for word.
	Generate(ctx context.Context, word string) (*models.GeneratedCard, error)

	// Model names the model that generates cards, recorded with cached cards.
	Model() string
}
