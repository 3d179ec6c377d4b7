package session

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/replicated"
)

const (
	walletA = "0xAAA0000000000000000000000000000000000001"
	walletB = "0xBBB0000000000000000000000000000000000002"
)

func newTestService(t *testing.T) (*Service, *Repository, *escrow.MemoryGate, *clockwork.FakeClock) {
	t.Helper()
	store := replicated.NewMemory()
	repo := NewRepository(store)
	gate := escrow.NewMemoryGate(common.HexToAddress(walletA))
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewService(repo, gate, clock), repo, gate, clock
}

func TestCreateSession(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "ABC123", "1000", 3, 60)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseLobby, sess.Phase)
	assert.Equal(t, "1000", sess.WagerAmount)

	stored, err := repo.GameSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", stored.SessionCode)

	_, err = svc.CreateSession(ctx, "ABC123", "2000", 3, 60)
	assert.Error(t, err, "session code must be single-use")
}

func TestCreateSession_RejectsBadWager(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for _, wager := range []string{"", "0", "-5", "1.5", "0x3e8", "lots"} {
		_, err := svc.CreateSession(ctx, "ABC123", wager, 3, 60)
		assert.ErrorIs(t, err, ErrBadWager, "wager %q must be rejected", wager)
	}
}

func TestJoin_CreatesAndReconnects(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	p, err := svc.Join(ctx, walletA, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.PlayerIDFromWallet(walletA), p.ID)
	assert.Equal(t, clock.Now(), p.JoinedAt)

	clock.Advance(time.Minute)

	// Same wallet reconnects: same record, original join time.
	again, err := svc.Join(ctx, walletA, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, p.JoinedAt, again.JoinedAt)

	players, err := repo.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestJoin_CaseInsensitiveWallet(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Join(ctx, walletA, "alice")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "0xaaa0000000000000000000000000000000000001", "alice")
	require.NoError(t, err)

	players, err := repo.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestJoin_LobbyFull(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxPlayers; i++ {
		_, err := svc.Join(ctx, fmt.Sprintf("0x%040x", i+1), "p")
		require.NoError(t, err)
	}

	_, err := svc.Join(ctx, "0xFFFF000000000000000000000000000000000001", "late")
	assert.ErrorIs(t, err, ErrLobbyFull)
}

func TestConfirmDepositAndReady(t *testing.T) {
	svc, _, gate, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "ABC123", "1000", 3, 60)
	require.NoError(t, err)
	p, err := svc.Join(ctx, walletA, "alice")
	require.NoError(t, err)

	require.NoError(t, gate.CreateGame(ctx, "ABC123", big.NewInt(1000)))

	// Readying or confirming before the on-chain deposit is rejected.
	assert.ErrorIs(t, svc.SetReady(ctx, p.ID, true), ErrNotDeposited)
	assert.ErrorIs(t, svc.ConfirmDeposit(ctx, p.ID, "0xdead"), ErrNotDeposited)

	require.NoError(t, gate.DepositWager(ctx, "ABC123"))

	require.NoError(t, svc.ConfirmDeposit(ctx, p.ID, "0xdead"))
	require.NoError(t, svc.SetReady(ctx, p.ID, true))
}

func TestKick(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "ABC123", "1000", 3, 60)
	require.NoError(t, err)
	owner, err := svc.Join(ctx, walletA, "alice")
	require.NoError(t, err)
	target, err := svc.Join(ctx, walletB, "bob")
	require.NoError(t, err)

	sess, err := repo.GameSession(ctx)
	require.NoError(t, err)
	players, err := repo.Players(ctx)
	require.NoError(t, err)
	HealOwner(sess, players)
	require.NoError(t, repo.SaveGameSession(ctx, sess))

	// Non-owner cannot kick.
	assert.ErrorIs(t, svc.Kick(ctx, target.ID, owner.ID), ErrNotOwner)

	require.NoError(t, svc.Kick(ctx, owner.ID, target.ID))
	players, err = repo.Players(ctx)
	require.NoError(t, err)
	assert.NotContains(t, players, target.ID)

	// Kicks are lobby-only.
	sess.Phase = models.PhasePlaying
	require.NoError(t, repo.SaveGameSession(ctx, sess))
	assert.ErrorIs(t, svc.Kick(ctx, owner.ID, owner.ID), ErrNotInLobby)
}
