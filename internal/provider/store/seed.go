package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/UltraQuamfy/contentify/internal/provider/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// catalog is the set of known AI providers seeded at startup. Names are the
// stable lookup keys used in issuance requests.
var catalog = []struct {
	name        string
	displayName string
}{
	{"openai", "OpenAI"},
	{"anthropic", "Anthropic"},
	{"stability", "Stability AI"},
	{"midjourney", "Midjourney"},
	{"meta", "Meta AI"},
}

// Seeder upserts the provider catalog.
type Seeder interface {
	Upsert(ctx context.Context, provider *models.Provider) error
}

// Seed inserts the known provider catalog, skipping rows that already
// exist. Safe to run on every startup.
func Seed(ctx context.Context, s Seeder) error {
	now := time.Now().UTC()
	for _, entry := range catalog {
		provider := &models.Provider{
			ID:          id.ProviderID(uuid.New()),
			Name:        entry.name,
			DisplayName: entry.displayName,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Upsert(ctx, provider); err != nil {
			return fmt.Errorf("seed provider %q: %w", entry.name, err)
		}
	}
	return nil
}
