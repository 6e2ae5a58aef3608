// Package web exposes the card collection and the quiz over HTTP with JSON
// bodies. Every route maps onto one user event of the app package.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/conorfennell/flashdeck/internal/app"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/importer"
)

const maxFormBytes = 1 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	app    *app.App
	router *http.ServeMux
	log    *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(a *app.App, log *slog.Logger) *Server {
	s := &Server{
		app:    a,
		router: http.NewServeMux(),
		log:    log,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /cards", s.handleListCards())
	s.router.HandleFunc("POST /cards", s.handleCreateCard())
	s.router.HandleFunc("GET /cards/{id}", s.handleEditCard())
	s.router.HandleFunc("PUT /cards/{id}", s.handleSaveEdit())
	s.router.HandleFunc("DELETE /cards/{id}", s.handleDeleteCard())

	s.router.HandleFunc("GET /export", s.handleExport())
	s.router.HandleFunc("POST /import", s.handleImport())

	s.router.HandleFunc("GET /quiz", s.handleGetQuiz())
	s.router.HandleFunc("POST /quiz/start", s.handleStartQuiz())
	s.router.HandleFunc("POST /quiz/reveal", s.handleReveal())
	s.router.HandleFunc("POST /quiz/answer", s.handleAnswer())
	s.router.HandleFunc("POST /quiz/exit", s.handleExitQuiz())
}

// cardInput is the body of create and edit requests.
type cardInput struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}

type cardsResponse struct {
	Status string        `json:"status,omitempty"`
	Filter string        `json:"filter"`
	Count  int           `json:"count"`
	Cards  []domain.Card `json:"cards"`
}

type cardResponse struct {
	Status string      `json:"status"`
	Card   domain.Card `json:"card"`
}

type quizResponse struct {
	Status string       `json:"status,omitempty"`
	Quiz   app.QuizView `json:"quiz"`
}

type importResponse struct {
	Status   string `json:"status"`
	Incoming int    `json:"incoming"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
	Total    int    `json:"total"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// handleListCards sets the search filter from ?q= and returns the matches.
func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		cards, err := s.app.SetSearchFilter(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, cardsResponse{Filter: q, Count: len(cards), Cards: cards})
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in cardInput
		if !s.decodeBody(w, r, &in) {
			return
		}
		card, err := s.app.CreateCard(in.Front, in.Back, in.Tags)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, cardResponse{Status: app.StatusAdded, Card: card})
	}
}

// handleEditCard returns the edit form prefill for a card.
func (s *Server) handleEditCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefill, err := s.app.EditCard(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, prefill)
	}
}

func (s *Server) handleSaveEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in cardInput
		if !s.decodeBody(w, r, &in) {
			return
		}
		card, err := s.app.SaveEdit(r.PathValue("id"), in.Front, in.Back, in.Tags)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, cardResponse{Status: app.StatusUpdated, Card: card})
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DeleteCard(r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": app.StatusDeleted})
	}
}

// handleExport serves the collection as a downloadable JSON file.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.app.Export()
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+importer.ExportFileName+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// handleImport merges the raw request body. ?format= selects json, yaml or md.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := importer.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Status: "Import failed", Error: err.Error()})
			return
		}
		res, err := s.app.Import(r.Body, format)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, importResponse{
			Status:   app.StatusImported,
			Incoming: res.Incoming,
			Accepted: res.Accepted,
			Dropped:  res.Dropped,
			Total:    res.Total,
		})
	}
}

func (s *Server) handleGetQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, quizResponse{Quiz: s.app.Quiz()})
	}
}

// handleStartQuiz starts a quiz over the cards matching the current filter.
func (s *Server) handleStartQuiz() http.HandlerFunc {
	return s.quizStep(func(*http.Request) (app.QuizView, error) {
		return s.app.StartQuiz()
	})
}

func (s *Server) handleReveal() http.HandlerFunc {
	return s.quizStep(func(*http.Request) (app.QuizView, error) {
		return s.app.Reveal()
	})
}

// handleAnswer accepts {"correct": true} or ?correct=true.
func (s *Server) handleAnswer() http.HandlerFunc {
	return s.quizStep(func(r *http.Request) (app.QuizView, error) {
		correct, err := parseCorrect(r)
		if err != nil {
			return s.app.Quiz(), err
		}
		return s.app.Answer(correct)
	})
}

func (s *Server) handleExitQuiz() http.HandlerFunc {
	return s.quizStep(func(*http.Request) (app.QuizView, error) {
		return s.app.ExitQuiz(), nil
	})
}

func (s *Server) quizStep(step func(*http.Request) (app.QuizView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := step(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, quizResponse{Status: view.Status, Quiz: view})
	}
}

func parseCorrect(r *http.Request) (bool, error) {
	if v := r.URL.Query().Get("correct"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, domain.NewValidationError("correct", "must be true or false")
		}
		return b, nil
	}
	var body struct {
		Correct *bool `json:"correct"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes)).Decode(&body); err != nil || body.Correct == nil {
		return false, domain.NewValidationError("correct", "must be true or false")
	}
	return *body.Correct, nil
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes)).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Status: "Invalid request", Error: err.Error()})
		return false
	}
	return true
}

// statusCode maps the error taxonomy onto HTTP.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyQueue), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeJSON(w, code, errorResponse{Status: domain.StatusMessage(err), Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}
