package domain

import (
	"context"
	"time"
)

// EventType enumerates the events carried by the question bus.
type EventType string

const (
	// EventQuestionCreated fires when an ask transaction is submitted
	// locally; the payload is an optimistic stub.
	EventQuestionCreated EventType = "question_created"

	// EventQuestionConfirmed fires when an authoritative read supersedes
	// a stub or the indexer observes a new on-chain question.
	EventQuestionConfirmed EventType = "question_confirmed"

	// EventAnswerSubmitted fires when the indexer observes a new answer.
	EventAnswerSubmitted EventType = "answer_submitted"
)

// Event is one message on the question bus.
type Event struct {
	Type    EventType `json:"type"`
	ChainID int64     `json:"chain_id"`
	Stub    Stub      `json:"stub,omitempty"`
	Row     *Question `json:"row,omitempty"`
}

// QuestionBus is the in-process publish/subscribe channel for optimistic
// updates. Emit delivers synchronously to every listener registered at emit
// time, in registration order; On returns an unsubscribe closure. There is
// no buffering or replay; late subscribers rehydrate from the StubStore.
type QuestionBus interface {
	Emit(ctx context.Context, ev Event)
	On(fn func(Event)) (unsubscribe func())
}

// RateLimiter provides request rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
