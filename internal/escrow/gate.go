package escrow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GameInfo mirrors the escrow contract's per-session view.
type GameInfo struct {
	Owner         common.Address
	WagerAmount   *big.Int
	TotalDeposits *big.Int
	PlayerCount   uint8
	IsFinished    bool
	Winner        common.Address
}

// Gate is the escrow contract boundary. The contract's internal
// accounting is out of scope; only this call/return surface is used.
//
// DistributePrize must be safe to call more than once: two clients that
// both believe they are the lobby owner can both detect game end, and the
// gate's own "already finished" state is the final dedupe.
type Gate interface {
	// CreateGame registers the session with its immutable wager amount.
	// Owner-only, once per session code.
	CreateGame(ctx context.Context, sessionCode string, wager *big.Int) error

	// DepositWager pays exactly the wager amount into escrow for the
	// calling address. Duplicate deposits are rejected.
	DepositWager(ctx context.Context, sessionCode string) error

	// GameInfo returns the contract's current view of the session.
	GameInfo(ctx context.Context, sessionCode string) (*GameInfo, error)

	// HasPlayerDeposited reports whether the address has paid in.
	HasPlayerDeposited(ctx context.Context, sessionCode string, addr common.Address) (bool, error)

	// DistributePrize transfers the accumulated deposits to the winner.
	// A call against an already-finished game returns ErrAlreadyFinished.
	DistributePrize(ctx context.Context, sessionCode string, winner common.Address) error

	// EmergencyRefund returns each depositor's wager. Owner-only.
	EmergencyRefund(ctx context.Context, sessionCode string) error
}
