package domain

import "github.com/google/uuid"

// Card is a single front/back study entry.
// Tags is never nil once a card has passed through the repository.
type Card struct {
	ID    string   `json:"id"    yaml:"id"`
	Front string   `json:"front" yaml:"front" validate:"required"`
	Back  string   `json:"back"  yaml:"back"  validate:"required"`
	Tags  []string `json:"tags"  yaml:"tags"  validate:"dive,required"`
}

// RawRecord is one decoded entry of an import payload before it has been
// checked. Values keep whatever type the payload gave them.
type RawRecord map[string]any

// NewID returns a fresh, never reused card identifier.
func NewID() string {
	return uuid.NewString()
}

// NormalizeTags returns tags with a nil slice replaced by an empty one.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Clone returns a copy of the card that shares no backing storage.
func (c Card) Clone() Card {
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	c.Tags = tags
	return c
}
