package domain

import "errors"

var (
	// ErrInvalidSpreadShape means the request's cards do not fit the named
	// spread: wrong count, duplicate cards, or bad position indexes.
	ErrInvalidSpreadShape = errors.New("cards do not match spread shape")

	// ErrUnknownSpread means the request named a spread that is not
	// registered.
	ErrUnknownSpread = errors.New("unknown spread")

	// ErrDeckNotFound means the request named a deck that is not registered.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrSafetyBudgetExceeded means the non-negotiable safety block of the
	// system prompt alone would consume most of the token budget. This is a
	// configuration bug, never a reason to truncate safety content.
	ErrSafetyBudgetExceeded = errors.New("safety content exceeds prompt budget")

	// ErrBackendUnavailable means every generation backend failed at the
	// transport level. Distinct from validation rejection, which falls
	// through to the next backend instead.
	ErrBackendUnavailable = errors.New("all generation backends unavailable")

	// ErrValidationRejected is internal to the orchestrator: a backend
	// produced text that failed structural validation. Never surfaced to
	// callers directly.
	ErrValidationRejected = errors.New("narrative rejected by structural validation")

	// ErrScorerUnavailable means the independent scoring backend failed or
	// timed out; the gate substitutes heuristic scores when it sees this.
	ErrScorerUnavailable = errors.New("scoring backend unavailable")
)
