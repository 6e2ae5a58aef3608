package importer

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Result summarizes one import.
type Result struct {
	Incoming int
	Accepted int
	Dropped  int
	Total    int
}

// Clean converts records into cards. A record needs string front and back
// fields or it is dropped. A non-empty string id is kept, otherwise newID
// supplies one.
func Clean(records []domain.RawRecord, newID func() string) (cards []domain.Card, dropped int) {
	cards = make([]domain.Card, 0, len(records))
	for _, rec := range records {
		front, okFront := rec["front"].(string)
		back, okBack := rec["back"].(string)
		if !okFront || !okBack {
			dropped++
			continue
		}
		id, _ := rec["id"].(string)
		if id == "" {
			id = newID()
		}
		cards = append(cards, domain.Card{
			ID:    id,
			Front: front,
			Back:  back,
			Tags:  cleanTags(rec["tags"]),
		})
	}
	return cards, dropped
}

// cleanTags keeps a list value, dropping falsy entries. Truthy scalars that
// are not strings are formatted; nested values are dropped.
func cleanTags(v any) []string {
	tags := []string{}
	switch list := v.(type) {
	case []string:
		for _, t := range list {
			if t != "" {
				tags = append(tags, t)
			}
		}
	case []any:
		for _, item := range list {
			if s, ok := tagString(item); ok {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

func tagString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			// Out of float64 range: keep the literal text.
			return t.String(), true
		}
		return tagString(f)
	case float64:
		if t == 0 || math.IsNaN(t) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), t != 0
	case int64:
		return strconv.FormatInt(t, 10), t != 0
	case uint64:
		return strconv.FormatUint(t, 10), t != 0
	default:
		return "", false
	}
}

// Dedupe collapses cards sharing an id. The last occurrence supplies the
// fields; the output keeps the position of the first occurrence.
func Dedupe(cards []domain.Card) []domain.Card {
	pos := make(map[string]int, len(cards))
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if i, seen := pos[c.ID]; seen {
			out[i] = c
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

// Merge reconciles incoming records with the existing collection: existing
// cards come first, incoming cards follow, and an incoming card overwrites
// any card with the same id.
func Merge(existing []domain.Card, incoming []domain.RawRecord, newID func() string) ([]domain.Card, Result) {
	cleaned, dropped := Clean(incoming, newID)

	all := make([]domain.Card, 0, len(existing)+len(cleaned))
	all = append(all, existing...)
	all = append(all, cleaned...)
	merged := Dedupe(all)

	return merged, Result{
		Incoming: len(incoming),
		Accepted: len(cleaned),
		Dropped:  dropped,
		Total:    len(merged),
	}
}

// Mutator runs a read-modify-write cycle over the stored collection.
type Mutator interface {
	Mutate(fn func(cards []domain.Card) ([]domain.Card, error)) error
}

// Apply merges records into the collection held by m in one cycle.
func Apply(m Mutator, records []domain.RawRecord, newID func() string) (Result, error) {
	var res Result
	err := m.Mutate(func(existing []domain.Card) ([]domain.Card, error) {
		var merged []domain.Card
		merged, res = Merge(existing, records, newID)
		return merged, nil
	})
	return res, err
}
