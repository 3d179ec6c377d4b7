package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/session"
	"github.com/rs/zerolog/log"
)

// StartGame transitions LOBBY -> PLAYING. Owner-gated: non-owners get
// session.ErrNotOwner, which callers surface locally and never broadcast.
// Requires at least two ready players. The first drawer is the earliest
// joined ready player; rotation proceeds in join order from there.
func (s *Scheduler) StartGame(ctx context.Context) error {
	sess, err := s.repo.GameSession(ctx)
	if err != nil {
		return err
	}
	if sess.Phase != models.PhaseLobby {
		return session.ErrNotInLobby
	}

	players, err := s.repo.Players(ctx)
	if err != nil {
		return err
	}
	if err := s.verifyOwner(sess, players); err != nil {
		return err
	}

	ready := models.ReadyPlayersInJoinOrder(players)
	if len(ready) < minReadyPlayers {
		return ErrNotEnoughPlayers
	}

	word, err := s.pickWord(ctx)
	if err != nil {
		return err
	}

	sess.Phase = models.PhasePlaying
	sess.CurrentRound = 1
	sess.CurrentDrawer = ready[0].ID
	sess.CurrentWord = word
	sess.RoundStartTime = s.clock.Now()
	sess.GuessedCorrectly = nil
	sess.RoundAdvanceInProgress = false
	if sess.Scores == nil {
		sess.Scores = make(map[models.PlayerID]int)
	}

	if err := s.repo.ClearDrawing(ctx); err != nil {
		return err
	}
	if err := s.repo.SaveGameSession(ctx, sess); err != nil {
		return err
	}

	log.Info().
		Str("drawer", string(sess.CurrentDrawer)).
		Int("round", sess.CurrentRound).
		Int("ready_players", len(ready)).
		Str("instance", s.instanceID).
		Msg("game started")
	s.Wake()
	return nil
}

// verifyOwner re-derives ownership from the freshest player set before an
// owner-gated mutation. A caller whose belief predates a re-election gets
// ErrStaleEpoch rather than mutating on stale authority.
func (s *Scheduler) verifyOwner(sess *models.GameSession, players map[models.PlayerID]models.Player) error {
	changed := session.HealOwner(sess, players)
	if sess.LobbyOwner != s.cfg.SelfID {
		if changed || sess.OwnerEpoch != s.lastEpoch {
			return ErrStaleEpoch
		}
		return session.ErrNotOwner
	}
	s.lastEpoch = sess.OwnerEpoch
	return nil
}

// advanceRound executes the owner's round transition: either the next
// round with a rotated drawer and fresh word, or the terminal FINISHED
// state with prize distribution. The replicated guard is written first so
// other lobby-owner-believing clients observing the same condition back
// off.
func (s *Scheduler) advanceRound(ctx context.Context, sess *models.GameSession, players map[models.PlayerID]models.Player) error {
	if sess.Phase == models.PhaseFinished {
		return ErrGameFinished
	}
	if guardActive(sess, s.clock.Now()) {
		return ErrAdvanceInProgress
	}

	sess.RoundAdvanceInProgress = true
	if err := s.repo.SaveGameSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to write advance guard: %w", err)
	}

	if sess.CurrentRound >= sess.TotalRounds {
		return s.finishGame(ctx, sess, players)
	}

	ready := models.ReadyPlayersInJoinOrder(players)
	if len(ready) == 0 {
		// Everyone un-readied mid-game; hold position until players
		// return or the session is abandoned.
		sess.RoundAdvanceInProgress = false
		return s.repo.SaveGameSession(ctx, sess)
	}

	word, err := s.pickWord(ctx)
	if err != nil {
		return err
	}

	sess.CurrentRound++
	sess.CurrentDrawer = nextDrawer(ready, sess.CurrentDrawer)
	sess.CurrentWord = word
	sess.RoundStartTime = s.clock.Now()
	sess.GuessedCorrectly = nil
	// Cleared in the same write as the advance itself, so the guard can
	// never outlive the transition it protected.
	sess.RoundAdvanceInProgress = false

	if err := s.repo.ClearDrawing(ctx); err != nil {
		return err
	}
	if err := s.repo.SaveGameSession(ctx, sess); err != nil {
		return err
	}

	log.Info().
		Int("round", sess.CurrentRound).
		Str("drawer", string(sess.CurrentDrawer)).
		Str("instance", s.instanceID).
		Msg("round advanced")
	s.Wake()
	return nil
}

// finishGame reaches the terminal phase exactly once per session code and
// settles the escrow. Prize distribution is idempotent at the gate: a
// second distributor observes the contract's finished state and no-ops.
func (s *Scheduler) finishGame(ctx context.Context, sess *models.GameSession, players map[models.PlayerID]models.Player) error {
	sess.Phase = models.PhaseFinished
	sess.Winner = sess.WinnerID()
	sess.RoundAdvanceInProgress = false
	sess.CurrentWord = ""
	if err := s.repo.SaveGameSession(ctx, sess); err != nil {
		return err
	}

	log.Info().
		Str("winner", string(sess.Winner)).
		Str("instance", s.instanceID).
		Msg("game finished")

	if err := s.distributePrize(ctx, sess, players); err != nil {
		log.Error().Err(err).Str("instance", s.instanceID).Msg("prize distribution failed")
	}

	if s.archive != nil {
		if err := s.archive.SaveFinishedSession(ctx, sess, players); err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to archive finished session")
		}
	}
	return nil
}

func (s *Scheduler) distributePrize(ctx context.Context, sess *models.GameSession, players map[models.PlayerID]models.Player) error {
	winner, ok := players[sess.Winner]
	if !ok {
		return fmt.Errorf("winner %s has no player record", sess.Winner)
	}

	info, err := s.gate.GameInfo(ctx, sess.SessionCode)
	if err != nil {
		return fmt.Errorf("failed to read escrow state: %w", err)
	}
	if !info.IsFinished {
		err := s.gate.DistributePrize(ctx, sess.SessionCode, common.HexToAddress(winner.WalletAddress))
		if err != nil && !errors.Is(err, escrow.ErrAlreadyFinished) {
			return err
		}
	}

	sess.PrizeDistributed = true
	return s.repo.SaveGameSession(ctx, sess)
}

// pickWord draws the next secret word against the replicated used pool.
func (s *Scheduler) pickWord(ctx context.Context) (string, error) {
	used, err := s.repo.UsedWords(ctx)
	if err != nil {
		return "", err
	}
	word, used, err := s.selector.Pick(s.cfg.Bank, used)
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveUsedWords(ctx, used); err != nil {
		return "", err
	}
	return word, nil
}

// nextDrawer rotates to the ready player after the current drawer in join
// order. A drawer that dropped out of the ready set hands off to the
// first ready player.
func nextDrawer(ready []models.Player, current models.PlayerID) models.PlayerID {
	for i, p := range ready {
		if p.ID == current {
			return ready[(i+1)%len(ready)].ID
		}
	}
	return ready[0].ID
}
