// Package deck is the card repository: CRUD and search over the persisted
// collection.
//
// Every operation reads the whole collection from the store, applies its
// change and writes the whole collection back. Operations on one Repository
// are serialized so that read-modify-write cycles never interleave. Two
// processes sharing a store are last-write-wins.
package deck

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Repository owns the card collection held in a storage.Store.
type Repository struct {
	mu    sync.Mutex
	store storage.Store
	newID func() string
	log   *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithIDFunc overrides the id generator.
func WithIDFunc(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithLogger sets the logger used for mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// New creates a repository over store.
func New(store storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		newID: domain.NewID,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the full collection, read fresh from the store.
func (r *Repository) List() ([]domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Search returns the cards whose front, back or any tag contains query,
// ignoring case. A blank query returns the full list.
func (r *Repository) Search(query string) ([]domain.Card, error) {
	cards, err := r.List()
	if err != nil {
		return nil, err
	}
	return Filter(cards, query), nil
}

// Get returns the card with id.
func (r *Repository) Get(id string) (domain.Card, error) {
	cards, err := r.List()
	if err != nil {
		return domain.Card{}, err
	}
	idx := indexOf(cards, id)
	if idx < 0 {
		return domain.Card{}, domain.NewNotFoundError(id)
	}
	return cards[idx], nil
}

// Count returns the number of cards in the collection.
func (r *Repository) Count() (int, error) {
	cards, err := r.List()
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

// IsEmpty reports whether the collection has no cards.
func (r *Repository) IsEmpty() (bool, error) {
	n, err := r.Count()
	return n == 0, err
}

// Add creates a card with a fresh id and prepends it to the collection.
// Fields are stored as given; callers trim.
func (r *Repository) Add(front, back string, tags []string) (domain.Card, error) {
	card := domain.Card{
		ID:    r.newID(),
		Front: front,
		Back:  back,
		Tags:  slices.Clone(domain.NormalizeTags(tags)),
	}
	if err := validateCard(card); err != nil {
		return domain.Card{}, err
	}

	err := r.Mutate(func(cards []domain.Card) ([]domain.Card, error) {
		return append([]domain.Card{card}, cards...), nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	r.log.Info("card added", "id", card.ID)
	return card, nil
}

// Update replaces front, back and tags of the card with id, keeping its
// position in the collection.
func (r *Repository) Update(id, front, back string, tags []string) (domain.Card, error) {
	updated := domain.Card{
		ID:    id,
		Front: front,
		Back:  back,
		Tags:  slices.Clone(domain.NormalizeTags(tags)),
	}
	if err := validateCard(updated); err != nil {
		return domain.Card{}, err
	}

	err := r.Mutate(func(cards []domain.Card) ([]domain.Card, error) {
		idx := indexOf(cards, id)
		if idx < 0 {
			return nil, domain.NewNotFoundError(id)
		}
		cards[idx] = updated
		return cards, nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	r.log.Info("card updated", "id", id)
	return updated, nil
}

// Delete removes the card with id.
func (r *Repository) Delete(id string) error {
	err := r.Mutate(func(cards []domain.Card) ([]domain.Card, error) {
		idx := indexOf(cards, id)
		if idx < 0 {
			return nil, domain.NewNotFoundError(id)
		}
		return slices.Delete(cards, idx, idx+1), nil
	})
	if err != nil {
		return err
	}
	r.log.Info("card deleted", "id", id)
	return nil
}

// ReplaceAll persists cards as the whole collection.
func (r *Repository) ReplaceAll(cards []domain.Card) error {
	return r.Mutate(func([]domain.Card) ([]domain.Card, error) {
		return cards, nil
	})
}

// Mutate runs one read-modify-write cycle: it loads the collection, passes
// it to fn and persists what fn returns. If fn fails nothing is written.
// fn must not call back into the repository.
func (r *Repository) Mutate(fn func(cards []domain.Card) ([]domain.Card, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cards, err := r.load()
	if err != nil {
		return err
	}
	next, err := fn(cards)
	if err != nil {
		return err
	}
	return r.save(next)
}

func (r *Repository) load() ([]domain.Card, error) {
	data, ok, err := r.store.ReadAll()
	if err != nil {
		r.log.Error("failed to read collection", "error", err)
		return nil, domain.NewPersistenceError("read collection", err)
	}
	if !ok || len(data) == 0 {
		return []domain.Card{}, nil
	}

	var cards []domain.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		r.log.Error("stored collection is corrupt", "error", err)
		return nil, domain.NewPersistenceError("decode collection", err)
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	for i := range cards {
		cards[i].Tags = domain.NormalizeTags(cards[i].Tags)
	}
	return cards, nil
}

func (r *Repository) save(cards []domain.Card) error {
	if cards == nil {
		cards = []domain.Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return domain.NewPersistenceError("encode collection", err)
	}
	if err := r.store.WriteAll(data); err != nil {
		r.log.Error("failed to write collection", "error", err)
		return domain.NewPersistenceError("write collection", err)
	}
	return nil
}

// Filter returns the cards matching query as Search does, preserving order.
func Filter(cards []domain.Card, query string) []domain.Card {
	if strings.TrimSpace(query) == "" {
		return cards
	}
	needle := strings.ToLower(query)
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if matches(c, needle) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c domain.Card, needle string) bool {
	if strings.Contains(strings.ToLower(c.Front), needle) ||
		strings.Contains(strings.ToLower(c.Back), needle) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func indexOf(cards []domain.Card, id string) int {
	return slices.IndexFunc(cards, func(c domain.Card) bool { return c.ID == id })
}

func validateCard(c domain.Card) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].StructField())
		if verrs[0].Tag() == "required" {
			return domain.NewValidationError(field, "is required")
		}
		return domain.NewValidationError(field, "failed "+verrs[0].Tag())
	}
	return domain.NewValidationError("", err.Error())
}
