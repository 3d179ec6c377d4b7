package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/replicated"
	"github.com/rs/zerolog/log"
)

// DefaultMaxPlayers caps a lobby.
const DefaultMaxPlayers = 9

// Service owns session membership: joins, deposits, ready flags and
// kicks. It mutates the replicated players slot; the scheduler derives
// everything else from it.
type Service struct {
	repo       *Repository
	gate       escrow.Gate
	clock      clockwork.Clock
	maxPlayers int
}

func NewService(repo *Repository, gate escrow.Gate, clock clockwork.Clock) *Service {
	return &Service{
		repo:       repo,
		gate:       gate,
		clock:      clock,
		maxPlayers: DefaultMaxPlayers,
	}
}

// CreateSession writes the session singleton and registers the wager with
// the escrow contract. The wager amount is immutable from here on.
func (s *Service) CreateSession(ctx context.Context, sessionCode, wagerAmount string, totalRounds, roundDurationSec int) (*models.GameSession, error) {
	if wager, ok := new(big.Int).SetString(wagerAmount, 10); !ok || wager.Sign() <= 0 {
		return nil, ErrBadWager
	}
	if _, err := s.repo.GameSession(ctx); err == nil {
		return nil, fmt.Errorf("session %s already exists", sessionCode)
	} else if !errors.Is(err, replicated.ErrNoValue) {
		return nil, err
	}

	sess := &models.GameSession{
		SessionCode:      sessionCode,
		Phase:            models.PhaseLobby,
		TotalRounds:      totalRounds,
		RoundDurationSec: roundDurationSec,
		WagerAmount:      wagerAmount,
		Scores:           make(map[models.PlayerID]int),
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.SaveGameSession(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().Str("session_code", sessionCode).Str("wager", wagerAmount).Msg("session created")
	return sess, nil
}

// Join creates the player record on first wallet-linked join, or returns
// the existing record for a reconnecting wallet. The id is canonical from
// the wallet address, so reconnects land on the same record.
func (s *Service) Join(ctx context.Context, walletAddress, nickname string) (*models.Player, error) {
	id := models.PlayerIDFromWallet(walletAddress)
	players, err := s.repo.Players(ctx)
	if err != nil {
		return nil, err
	}

	if existing, ok := players[id]; ok {
		// Reconnect: keep score and flags, refresh the nickname.
		if nickname != "" && nickname != existing.Nickname {
			existing.Nickname = nickname
			players[id] = existing
			if err := s.repo.SavePlayers(ctx, players); err != nil {
				return nil, err
			}
		}
		return &existing, nil
	}

	for _, p := range players {
		if p.ID != id && models.PlayerIDFromWallet(p.WalletAddress) == id {
			return nil, ErrWalletBound
		}
	}
	if len(players) >= s.maxPlayers {
		return nil, ErrLobbyFull
	}

	player := models.Player{
		ID:            id,
		Nickname:      nickname,
		WalletAddress: walletAddress,
		JoinedAt:      s.clock.Now(),
	}
	players[id] = player
	if err := s.repo.SavePlayers(ctx, players); err != nil {
		return nil, err
	}

	log.Info().Str("player_id", string(id)).Str("nickname", nickname).Msg("player joined")
	return &player, nil
}

// ConfirmDeposit marks the player paid once the escrow contract confirms
// their deposit, recording the transaction hash on the record.
func (s *Service) ConfirmDeposit(ctx context.Context, id models.PlayerID, txHash string) error {
	players, err := s.repo.Players(ctx)
	if err != nil {
		return err
	}
	player, ok := players[id]
	if !ok {
		return ErrUnknownPlayer
	}

	sess, err := s.repo.GameSession(ctx)
	if err != nil {
		return err
	}
	deposited, err := s.gate.HasPlayerDeposited(ctx, sess.SessionCode, common.HexToAddress(player.WalletAddress))
	if err != nil {
		return fmt.Errorf("failed to verify deposit: %w", err)
	}
	if !deposited {
		return ErrNotDeposited
	}

	player.HasPaid = true
	player.PaymentTxHash = txHash
	players[id] = player
	return s.repo.SavePlayers(ctx, players)
}

// SetReady flips the ready flag. Becoming ready requires a confirmed
// deposit; un-readying is always allowed in the lobby.
func (s *Service) SetReady(ctx context.Context, id models.PlayerID, ready bool) error {
	players, err := s.repo.Players(ctx)
	if err != nil {
		return err
	}
	player, ok := players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if ready && !player.HasPaid {
		return ErrNotDeposited
	}

	player.IsReady = ready
	players[id] = player
	return s.repo.SavePlayers(ctx, players)
}

// Kick removes a player. Owner-only and lobby-only; there is no leave
// protocol, so this is the only way a record disappears short of the
// session being abandoned.
func (s *Service) Kick(ctx context.Context, caller, target models.PlayerID) error {
	sess, err := s.repo.GameSession(ctx)
	if err != nil {
		return err
	}
	if sess.Phase != models.PhaseLobby {
		return ErrNotInLobby
	}
	if sess.LobbyOwner != caller {
		return ErrNotOwner
	}

	players, err := s.repo.Players(ctx)
	if err != nil {
		return err
	}
	if _, ok := players[target]; !ok {
		return ErrUnknownPlayer
	}
	delete(players, target)
	if err := s.repo.SavePlayers(ctx, players); err != nil {
		return err
	}

	log.Info().Str("target", string(target)).Str("caller", string(caller)).Msg("player kicked")
	return nil
}
