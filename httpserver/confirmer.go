package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQuestionNotFound is returned when answering a question that is not pending.
	ErrQuestionNotFound = errors.New("no such pending question")

	// ErrAlreadyAnswered is returned when a pending question receives a second answer.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrQuestionPending is returned by Confirm while another question is unanswered.
	ErrQuestionPending = errors.New("another question is pending")
)

// Question is a confirmation prompt waiting for a remote operator.
type Question struct {
	ID      string    `json:"id"`
	Prompt  string    `json:"prompt"`
	AskedAt time.Time `json:"asked_at"`
}

type pendingQuestion struct {
	Question
	answer   chan bool
	answered bool
}

// RemoteConfirmer implements interfaces.Confirmer by publishing each prompt as
// a pending question and blocking until it is answered over HTTP.
// At most one question is pending at any time.
type RemoteConfirmer struct {
	mu      sync.Mutex
	pending *pendingQuestion
	log     *slog.Logger
}

// NewRemoteConfirmer creates a confirmer with no pending question.
func NewRemoteConfirmer(log *slog.Logger) *RemoteConfirmer {
	return &RemoteConfirmer{log: log}
}

// Confirm publishes prompt and waits for an answer or for ctx to be done.
func (c *RemoteConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	q := &pendingQuestion{
		Question: Question{
			ID:      uuid.NewString(),
			Prompt:  prompt,
			AskedAt: time.Now().UTC(),
		},
		answer: make(chan bool, 1),
	}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return false, ErrQuestionPending
	}
	c.pending = q
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
	}()

	c.log.Info("Waiting for remote confirmation", slog.String("id", q.ID), slog.String("prompt", prompt))

	select {
	case ok := <-q.answer:
		c.log.Info("Remote operator answered", slog.String("id", q.ID), slog.Bool("confirmed", ok))
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Pending returns the question currently waiting for an answer, if any.
func (c *RemoteConfirmer) Pending() (Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.answered {
		return Question{}, false
	}
	return c.pending.Question, true
}

// Answer resolves the pending question with the given id.
func (c *RemoteConfirmer) Answer(id string, confirm bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || c.pending.ID != id {
		return ErrQuestionNotFound
	}
	if c.pending.answered {
		return ErrAlreadyAnswered
	}

	c.pending.answered = true
	c.pending.answer <- confirm
	return nil
}
