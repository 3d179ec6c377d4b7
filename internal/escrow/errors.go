package escrow

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyFinished signals a prize distribution against a game the
	// contract already settled. Callers treat it as a successful no-op.
	ErrAlreadyFinished = errors.New("game already finished")
	// ErrAlreadyDeposited rejects a duplicate wager deposit.
	ErrAlreadyDeposited = errors.New("wager already deposited")
	// ErrGameExists rejects creating a session code twice.
	ErrGameExists = errors.New("game already exists")
	// ErrUnknownGame is returned for session codes the contract has never
	// seen.
	ErrUnknownGame = errors.New("unknown game")

	// ErrInsufficientFunds covers wallet balances too low to cover the
	// wager plus gas.
	ErrInsufficientFunds = errors.New("insufficient funds for wager")
	// ErrUserRejected covers the user declining the transaction in their
	// wallet.
	ErrUserRejected = errors.New("transaction rejected by user")
	// ErrReverted covers contract-side reverts not otherwise classified.
	ErrReverted = errors.New("contract call reverted")
)

// Classify maps raw provider/contract errors onto the taxonomy so the
// caller can show a specific remediation instead of a generic failure.
// Matching is substring-based because providers do not agree on error
// codes.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return ErrUserRejected
	case strings.Contains(msg, "already finished"), strings.Contains(msg, "already distributed"):
		return ErrAlreadyFinished
	case strings.Contains(msg, "already deposited"):
		return ErrAlreadyDeposited
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return ErrReverted
	default:
		return err
	}
}
