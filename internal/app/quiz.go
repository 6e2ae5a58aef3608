package app

import (
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/quiz"
)

// QuizView is what a quiz panel needs to render the current session.
type QuizView struct {
	State    string `json:"state"`
	Progress string `json:"progress,omitempty"`
	Front    string `json:"front,omitempty"`
	Back     string `json:"back,omitempty"`
	Revealed bool   `json:"revealed"`
	Correct  int    `json:"correct"`
	Wrong    int    `json:"wrong"`
	Total    int    `json:"total"`
	Score    int    `json:"score"`
	Summary  string `json:"summary,omitempty"`

	// Status is the app status as of this view, read under the same lock.
	Status string `json:"-"`
}

func (a *App) quizView() QuizView {
	s := a.session
	v := QuizView{
		State:    s.State().String(),
		Progress: s.Progress(),
		Revealed: s.IsRevealed(),
		Correct:  s.CorrectCount(),
		Wrong:    s.WrongCount(),
		Total:    s.Len(),
		Summary:  s.Summary(),
		Status:   a.status,
	}
	if s.State() == quiz.Completed {
		v.Score = s.Score()
	}
	if c, ok := s.Current(); ok {
		v.Front = c.Front
		if v.Revealed {
			v.Back = c.Back
		}
	}
	return v
}

// Quiz returns the current session view.
func (a *App) Quiz() QuizView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quizView()
}

// StartQuiz begins a quiz over the cards matching the current filter.
func (a *App) StartQuiz() (QuizView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot, err := a.repo.Search(a.filter)
	if err != nil {
		err = a.finish("", err)
		return a.quizView(), err
	}
	return a.startQuiz(snapshot)
}

// StartQuizWith begins a quiz over an explicit snapshot.
func (a *App) StartQuizWith(snapshot []domain.Card) (QuizView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startQuiz(snapshot)
}

func (a *App) startQuiz(snapshot []domain.Card) (QuizView, error) {
	if err := a.session.Start(snapshot); err != nil {
		err = a.finish("", err)
		return a.quizView(), err
	}
	a.log.Debug("quiz started", "cards", len(snapshot))
	a.status = StatusQuizReady
	return a.quizView(), nil
}

// Reveal shows the back of the current card.
func (a *App) Reveal() (QuizView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.Reveal(); err != nil {
		err = a.finish("", err)
		return a.quizView(), err
	}
	return a.quizView(), nil
}

// Answer records the self-assessed result for the current card.
func (a *App) Answer(correct bool) (QuizView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.Answer(correct); err != nil {
		err = a.finish("", err)
		return a.quizView(), err
	}
	if a.session.State() != quiz.Completed {
		return a.quizView(), nil
	}
	a.status = a.session.Summary()
	v := a.quizView()
	a.log.Info("quiz completed", "correct", v.Correct, "wrong", v.Wrong, "score", v.Score)
	return v, nil
}

// ExitQuiz discards the running quiz.
func (a *App) ExitQuiz() QuizView {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session.Exit()
	return a.quizView()
}
