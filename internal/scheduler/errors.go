package scheduler

import "errors"

var (
	// ErrNotEnoughPlayers rejects starting with fewer than two ready
	// players.
	ErrNotEnoughPlayers = errors.New("need at least 2 ready players to start")
	// ErrAdvanceInProgress signals that another evaluator already holds
	// the round-advance guard; the local client adopts whatever state
	// that advance produces.
	ErrAdvanceInProgress = errors.New("round advance already in progress")
	// ErrStaleEpoch signals that the caller acted on an ownership view
	// that re-election has since invalidated.
	ErrStaleEpoch = errors.New("ownership epoch is stale")
	// ErrGameFinished rejects mutations against a terminal session.
	ErrGameFinished = errors.New("game already finished")
)
