package escrow

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrAlice = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrBob   = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestMemoryGate_CreateGameOncePerCode(t *testing.T) {
	g := NewMemoryGate(addrAlice)
	ctx := context.Background()

	require.NoError(t, g.CreateGame(ctx, "ABC123", big.NewInt(1000)))
	assert.ErrorIs(t, g.CreateGame(ctx, "ABC123", big.NewInt(2000)), ErrGameExists)
}

func TestMemoryGate_DepositRules(t *testing.T) {
	g := NewMemoryGate(addrAlice)
	ctx := context.Background()

	assert.ErrorIs(t, g.DepositWager(ctx, "NOPE"), ErrUnknownGame)

	require.NoError(t, g.CreateGame(ctx, "ABC123", big.NewInt(1000)))
	require.NoError(t, g.DepositWager(ctx, "ABC123"))
	assert.ErrorIs(t, g.DepositWager(ctx, "ABC123"), ErrAlreadyDeposited)

	deposited, err := g.HasPlayerDeposited(ctx, "ABC123", addrAlice)
	require.NoError(t, err)
	assert.True(t, deposited)

	deposited, err = g.HasPlayerDeposited(ctx, "ABC123", addrBob)
	require.NoError(t, err)
	assert.False(t, deposited)
}

func TestMemoryGate_GameInfoTracksDeposits(t *testing.T) {
	g := NewMemoryGate(addrAlice)
	ctx := context.Background()

	require.NoError(t, g.CreateGame(ctx, "ABC123", big.NewInt(1000)))
	require.NoError(t, g.DepositWager(ctx, "ABC123"))

	info, err := g.GameInfo(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, addrAlice, info.Owner)
	assert.Equal(t, big.NewInt(1000), info.WagerAmount)
	assert.Equal(t, big.NewInt(1000), info.TotalDeposits)
	assert.Equal(t, uint8(1), info.PlayerCount)
	assert.False(t, info.IsFinished)
}

func TestMemoryGate_DistributeExactlyOnce(t *testing.T) {
	g := NewMemoryGate(addrAlice)
	ctx := context.Background()

	require.NoError(t, g.CreateGame(ctx, "ABC123", big.NewInt(1000)))
	require.NoError(t, g.DepositWager(ctx, "ABC123"))

	require.NoError(t, g.DistributePrize(ctx, "ABC123", addrBob))
	assert.ErrorIs(t, g.DistributePrize(ctx, "ABC123", addrBob), ErrAlreadyFinished)

	info, err := g.GameInfo(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, info.IsFinished)
	assert.Equal(t, addrBob, info.Winner)
	assert.Equal(t, big.NewInt(0), info.TotalDeposits)
}

func TestMemoryGate_EmergencyRefund(t *testing.T) {
	g := NewMemoryGate(addrAlice)
	ctx := context.Background()

	require.NoError(t, g.CreateGame(ctx, "ABC123", big.NewInt(1000)))
	require.NoError(t, g.DepositWager(ctx, "ABC123"))
	require.NoError(t, g.EmergencyRefund(ctx, "ABC123"))

	assert.ErrorIs(t, g.DistributePrize(ctx, "ABC123", addrBob), ErrAlreadyFinished)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"insufficient funds", errors.New("err: insufficient funds for gas * price + value"), ErrInsufficientFunds},
		{"user rejected", errors.New("MetaMask Tx Signature: User rejected the request"), ErrUserRejected},
		{"user denied", errors.New("user denied transaction signature"), ErrUserRejected},
		{"already finished", errors.New("execution reverted: Game already finished"), ErrAlreadyFinished},
		{"already deposited", errors.New("execution reverted: Already deposited"), ErrAlreadyDeposited},
		{"generic revert", errors.New("execution reverted"), ErrReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassify_PassesUnknownThrough(t *testing.T) {
	unknown := errors.New("connection refused")
	assert.Equal(t, unknown, Classify(unknown))
}
