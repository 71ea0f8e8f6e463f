package game

import "errors"

// Conditions rejected synchronously, before any generation call is
// made. Routes map these to 4xx responses; no stream event is emitted
// for them.
var (
	// ErrSessionNotFound means the session ID resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPuzzleNotFound means the referenced puzzle no longer exists.
	ErrPuzzleNotFound = errors.New("puzzle not found")
	// ErrForbidden means the session belongs to another player.
	ErrForbidden = errors.New("session belongs to another player")
	// ErrSessionEnded means an exchange was attempted on a terminal
	// session.
	ErrSessionEnded = errors.New("game already ended")
	// ErrEmptyQuestion means the question text was empty or blank.
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrExchangeInFlight means the session already has a question
	// streaming; exchanges are serialized per session.
	ErrExchangeInFlight = errors.New("another question is still being answered")
)
