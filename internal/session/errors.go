package session

import "errors"

var (
	// ErrNotOwner rejects owner-gated actions from anyone but the current
	// lobby owner. Callers surface it locally; it is never broadcast.
	ErrNotOwner = errors.New("caller is not the lobby owner")
	// ErrNotInLobby rejects lobby-only actions once the game has started.
	ErrNotInLobby = errors.New("session is not in the lobby phase")
	// ErrLobbyFull rejects joins past the player cap.
	ErrLobbyFull = errors.New("lobby is full")
	// ErrUnknownPlayer is returned for actions referencing a player id not
	// present in the players slot.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrWalletBound rejects binding a wallet address that is already
	// attached to a different player record.
	ErrWalletBound = errors.New("wallet address already bound to another player")
	// ErrNotDeposited rejects readying up before the escrow deposit has
	// confirmed.
	ErrNotDeposited = errors.New("player has not deposited the wager")
	// ErrBadWager rejects a wager amount that is not a positive integer
	// in wei.
	ErrBadWager = errors.New("wager amount must be a positive integer")
)
