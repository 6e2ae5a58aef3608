package importer

import (
	"encoding/json"
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Export renders the collection as pretty-printed JSON using the persisted
// record schema.
func Export(cards []domain.Card) ([]byte, error) {
	out := make([]domain.Card, len(cards))
	for i, c := range cards {
		c.Tags = domain.NormalizeTags(c.Tags)
		out[i] = c
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}
