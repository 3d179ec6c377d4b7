package escrow

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryGate is an in-process Gate for wager-free play and tests. It
// enforces the same rules as the contract: one game per code, one deposit
// per address, distribution exactly once.
type MemoryGate struct {
	mu    sync.Mutex
	from  common.Address
	games map[string]*memoryGame
}

type memoryGame struct {
	owner      common.Address
	wager      *big.Int
	deposits   map[common.Address]*big.Int
	isFinished bool
	winner     common.Address
}

func NewMemoryGate(from common.Address) *MemoryGate {
	return &MemoryGate{
		from:  from,
		games: make(map[string]*memoryGame),
	}
}

func (g *MemoryGate) CreateGame(ctx context.Context, sessionCode string, wager *big.Int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.games[sessionCode]; ok {
		return ErrGameExists
	}
	g.games[sessionCode] = &memoryGame{
		owner:    g.from,
		wager:    new(big.Int).Set(wager),
		deposits: make(map[common.Address]*big.Int),
	}
	return nil
}

func (g *MemoryGate) DepositWager(ctx context.Context, sessionCode string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[sessionCode]
	if !ok {
		return ErrUnknownGame
	}
	if _, ok := game.deposits[g.from]; ok {
		return ErrAlreadyDeposited
	}
	game.deposits[g.from] = new(big.Int).Set(game.wager)
	return nil
}

func (g *MemoryGate) GameInfo(ctx context.Context, sessionCode string) (*GameInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[sessionCode]
	if !ok {
		return nil, ErrUnknownGame
	}
	total := new(big.Int)
	for _, d := range game.deposits {
		total.Add(total, d)
	}
	return &GameInfo{
		Owner:         game.owner,
		WagerAmount:   new(big.Int).Set(game.wager),
		TotalDeposits: total,
		PlayerCount:   uint8(len(game.deposits)),
		IsFinished:    game.isFinished,
		Winner:        game.winner,
	}, nil
}

func (g *MemoryGate) HasPlayerDeposited(ctx context.Context, sessionCode string, addr common.Address) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[sessionCode]
	if !ok {
		return false, ErrUnknownGame
	}
	_, deposited := game.deposits[addr]
	return deposited, nil
}

func (g *MemoryGate) DistributePrize(ctx context.Context, sessionCode string, winner common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[sessionCode]
	if !ok {
		return ErrUnknownGame
	}
	if game.isFinished {
		return ErrAlreadyFinished
	}
	game.isFinished = true
	game.winner = winner
	game.deposits = make(map[common.Address]*big.Int)
	return nil
}

func (g *MemoryGate) EmergencyRefund(ctx context.Context, sessionCode string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[sessionCode]
	if !ok {
		return ErrUnknownGame
	}
	if game.isFinished {
		return ErrAlreadyFinished
	}
	game.isFinished = true
	game.deposits = make(map[common.Address]*big.Int)
	return nil
}
