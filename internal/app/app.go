// Package app holds the application state a user interface drives: the
// current search filter, the running quiz and the last status message.
// Each method corresponds to one user event and is safe for concurrent use;
// events are applied one at a time.
package app

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/importer"
	"github.com/conorfennell/flashdeck/internal/logging"
	"github.com/conorfennell/flashdeck/internal/quiz"
)

// Status messages announced after successful events.
const (
	StatusAdded     = "Card added"
	StatusUpdated   = "Card updated"
	StatusDeleted   = "Card deleted"
	StatusImported  = "Import complete"
	StatusSeeded    = "Loaded sample cards"
	StatusQuizReady = "Quiz started"
)

// App is the state shared by all user events.
type App struct {
	mu       sync.Mutex
	repo     *deck.Repository
	session  *quiz.Session
	filter   string
	status   string
	newID    func() string
	maxBytes int64
	log      *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithRand sets the random source used to shuffle quizzes.
func WithRand(rng *rand.Rand) Option {
	return func(a *App) { a.session = quiz.New(rng) }
}

// WithIDFunc overrides the id generator used for imported records.
func WithIDFunc(fn func() string) Option {
	return func(a *App) { a.newID = fn }
}

// WithMaxImportBytes bounds import payloads.
func WithMaxImportBytes(n int64) Option {
	return func(a *App) { a.maxBytes = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New creates the application state over repo.
func New(repo *deck.Repository, opts ...Option) *App {
	a := &App{
		repo:     repo,
		newID:    domain.NewID,
		maxBytes: importer.DefaultMaxBytes,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.session == nil {
		a.session = quiz.New(nil)
	}
	return a
}

// Status returns the message produced by the most recent event.
func (a *App) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Filter returns the current search text.
func (a *App) Filter() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// finish records the outcome of an event as the status message.
func (a *App) finish(ok string, err error) error {
	if err != nil {
		a.status = domain.StatusMessage(err)
		return err
	}
	a.status = ok
	return nil
}

// SampleCards are stored when a new collection is seeded.
func SampleCards(newID func() string) []domain.Card {
	return []domain.Card{
		{ID: newID(), Front: "Capital of Japan?", Back: "Tokyo", Tags: []string{"geography"}},
		{ID: newID(), Front: "2 + 2 =", Back: "4", Tags: []string{"math"}},
	}
}

// Seed stores the sample cards if the collection is empty and reports
// whether it did.
func (a *App) Seed() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seeded := false
	err := a.repo.Mutate(func(cards []domain.Card) ([]domain.Card, error) {
		if len(cards) > 0 {
			return cards, nil
		}
		seeded = true
		return SampleCards(a.newID), nil
	})
	if err != nil {
		return false, a.finish("", err)
	}
	if seeded {
		a.status = StatusSeeded
		a.log.Info("seeded sample cards")
	}
	return seeded, nil
}

// ParseTags splits comma separated tag input, trimming each tag and
// dropping empty ones.
func ParseTags(input string) []string {
	return cleanTags(strings.Split(input, ","))
}

// JoinTags renders tags the way ParseTags reads them.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// formFields trims input the way the card form does and rejects empty
// front or back before anything reaches the repository.
func formFields(front, back string, tags []string) (string, string, []string, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" {
		return "", "", nil, domain.NewValidationError("front", "is required")
	}
	if back == "" {
		return "", "", nil, domain.NewValidationError("back", "is required")
	}
	return front, back, cleanTags(tags), nil
}

// CreateCard adds a card from form input.
func (a *App) CreateCard(front, back string, tags []string) (domain.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	front, back, tags, err := formFields(front, back, tags)
	if err != nil {
		return domain.Card{}, a.finish("", err)
	}
	card, err := a.repo.Add(front, back, tags)
	return card, a.finish(StatusAdded, err)
}

// Prefill is what the edit form shows for an existing card.
type Prefill struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
	Tags  string `json:"tags"`
}

// EditCard returns the form values for the card with id.
func (a *App) EditCard(id string) (Prefill, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	card, err := a.repo.Get(id)
	if err != nil {
		return Prefill{}, a.finish("", err)
	}
	return Prefill{ID: card.ID, Front: card.Front, Back: card.Back, Tags: JoinTags(card.Tags)}, nil
}

// SaveEdit replaces the fields of the card with id from form input.
func (a *App) SaveEdit(id, front, back string, tags []string) (domain.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	front, back, tags, err := formFields(front, back, tags)
	if err != nil {
		return domain.Card{}, a.finish("", err)
	}
	card, err := a.repo.Update(id, front, back, tags)
	return card, a.finish(StatusUpdated, err)
}

// DeleteCard removes the card with id.
func (a *App) DeleteCard(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finish(StatusDeleted, a.repo.Delete(id))
}

// SetSearchFilter stores the filter text and returns the matching cards.
func (a *App) SetSearchFilter(text string) ([]domain.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.filter = text
	cards, err := a.repo.Search(text)
	if err != nil {
		return nil, a.finish("", err)
	}
	return cards, nil
}

// Cards returns the cards matching the current filter.
func (a *App) Cards() ([]domain.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cards, err := a.repo.Search(a.filter)
	if err != nil {
		return nil, a.finish("", err)
	}
	return cards, nil
}

// Export renders the full collection for download.
func (a *App) Export() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cards, err := a.repo.List()
	if err != nil {
		return nil, a.finish("", err)
	}
	return importer.Export(cards)
}

// Import merges the payload read from r into the collection. A payload
// that is not a list aborts the import; malformed records are skipped.
func (a *App) Import(r io.Reader, format importer.Format) (importer.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := importer.Decode(r, format, a.maxBytes)
	if err != nil {
		a.log.Warn("import rejected", "format", format, "error", err)
		return importer.Result{}, a.finish("", err)
	}

	res, err := importer.Apply(a.repo, records, a.newID)
	if err != nil {
		return importer.Result{}, a.finish("", err)
	}
	a.log.Info("import complete",
		"format", format,
		"incoming", res.Incoming,
		"accepted", res.Accepted,
		"dropped", res.Dropped,
		"total", res.Total,
	)
	return res, a.finish(StatusImported, nil)
}
