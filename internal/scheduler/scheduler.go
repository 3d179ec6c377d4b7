package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/replicated"
	"github.com/mcdev12/sketchwager/internal/session"
	"github.com/mcdev12/sketchwager/internal/words"
	"github.com/rs/zerolog/log"
)

const (
	// idlePollDuration bounds how long the loop sleeps when no deadline
	// is pending.
	idlePollDuration = 5 * time.Second

	// advanceGuardTTL bounds how long a replicated round-advance guard is
	// honored. An owner that crashed mid-advance would otherwise leave the
	// guard set forever and wedge every evaluator.
	advanceGuardTTL = 10 * time.Second

	// DefaultRoundDuration and DefaultTotalRounds are the fixed game
	// parameters when the session creator does not override them.
	DefaultRoundDuration = 60 * time.Second
	DefaultTotalRounds   = 3

	minReadyPlayers = 2
)

// Archiver persists finished sessions to device-local storage. Optional;
// failures are logged, never propagated into game state.
type Archiver interface {
	SaveFinishedSession(ctx context.Context, sess *models.GameSession, players map[models.PlayerID]models.Player) error
}

// Config identifies the local participant and their word bank.
type Config struct {
	SelfID models.PlayerID
	Bank   []string
}

// Scheduler is one client's rule evaluator for the session state machine.
// Every connected client runs an identical Scheduler against the same
// replicated slots; all of them derive owner, countdown and advance
// conditions, but only the client that currently believes it is the lobby
// owner executes transitions. The replicated advance guard and the escrow
// contract's own finished check absorb the window where two clients both
// believe they own the lobby.
type Scheduler struct {
	repo     *session.Repository
	selector *words.Selector
	gate     escrow.Gate
	archive  Archiver
	clock    clockwork.Clock
	cfg      Config

	instanceID string
	wakeCh     chan struct{}

	// lastEpoch is the ownership epoch under which the local client last
	// confirmed its view. Owner-gated mutations re-derive ownership and
	// fail with ErrStaleEpoch when re-election moved it meanwhile.
	lastEpoch int64
}

func New(repo *session.Repository, selector *words.Selector, gate escrow.Gate, archive Archiver, clock clockwork.Clock, cfg Config) *Scheduler {
	if len(cfg.Bank) == 0 {
		cfg.Bank = words.DefaultBank
	}
	return &Scheduler{
		repo:       repo,
		selector:   selector,
		gate:       gate,
		archive:    archive,
		clock:      clock,
		cfg:        cfg,
		instanceID: uuid.New().String()[:8],
		wakeCh:     make(chan struct{}, 1),
	}
}

// Wake nudges the run loop to re-evaluate immediately, used after local
// mutations that may have moved the next deadline.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run evaluates the session until ctx is cancelled. It sleeps until the
// next round deadline, waking early on any replicated-slot change.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Str("instance", s.instanceID).Str("self", string(s.cfg.SelfID)).Msg("scheduler started")

	updates, err := s.repo.Watch(ctx)
	if err != nil {
		return err
	}

	timer := s.clock.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.wakeCh:
		default:
		}

		deadline := s.evaluate(ctx)

		wait := idlePollDuration
		if !deadline.IsZero() {
			if d := deadline.Sub(s.clock.Now()); d > 0 && d < wait {
				wait = d
			} else if d <= 0 {
				// Deadline already passed; re-evaluate promptly. A short
				// backoff keeps a non-owner from spinning while it waits
				// for the owner's advance to propagate.
				wait = 250 * time.Millisecond
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			log.Info().Str("instance", s.instanceID).Msg("scheduler shutting down")
			return nil
		case <-timer.Chan():
		case <-s.wakeCh:
		case _, ok := <-updates:
			if !ok {
				log.Info().Str("instance", s.instanceID).Msg("watch stream closed")
				return nil
			}
		}
	}
}

// evaluate runs one pass of the shared rules against whatever state has
// converged so far and returns the next deadline worth sleeping toward.
func (s *Scheduler) evaluate(ctx context.Context) time.Time {
	sess, err := s.repo.GameSession(ctx)
	if err != nil {
		if !errors.Is(err, replicated.ErrNoValue) {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to read session")
		}
		return time.Time{}
	}

	players, err := s.repo.Players(ctx)
	if err != nil {
		log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to read players")
		return time.Time{}
	}

	// Self-healing election: any evaluator that spots a mismatch writes
	// the correction. Concurrent corrections converge because the elect
	// function is deterministic.
	if session.HealOwner(sess, players) {
		if err := s.repo.SaveGameSession(ctx, sess); err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to write owner correction")
		} else {
			log.Info().
				Str("owner", string(sess.LobbyOwner)).
				Int64("epoch", sess.OwnerEpoch).
				Str("instance", s.instanceID).
				Msg("lobby owner corrected")
		}
	}
	s.lastEpoch = sess.OwnerEpoch

	if sess.Phase != models.PhasePlaying {
		return time.Time{}
	}

	now := s.clock.Now()
	if s.shouldAdvance(sess, players, now) {
		if sess.LobbyOwner == s.cfg.SelfID {
			if err := s.advanceRound(ctx, sess, players); err != nil && !errors.Is(err, ErrAdvanceInProgress) {
				log.Error().Err(err).Str("instance", s.instanceID).Msg("round advance failed")
			}
		}
		// Non-owners simply wait; the advanced state arrives via watch.
		return time.Time{}
	}

	return sess.RoundDeadline()
}

// guardActive reports whether a replicated round-advance guard should
// still be honored. A guard older than the TTL past the round deadline
// was left by a crashed owner and is ignored, so the healed owner can
// re-run the advance.
func guardActive(sess *models.GameSession, now time.Time) bool {
	return sess.RoundAdvanceInProgress &&
		now.Sub(sess.RoundStartTime) < time.Duration(sess.RoundDurationSec)*time.Second+advanceGuardTTL
}

// shouldAdvance checks the shared advance condition: the countdown hit
// zero, or every ready non-drawer has guessed correctly. A held advance
// guard suppresses the trigger unless it has gone stale.
func (s *Scheduler) shouldAdvance(sess *models.GameSession, players map[models.PlayerID]models.Player, now time.Time) bool {
	if guardActive(sess, now) {
		return false
	}
	if sess.TimeRemaining(now) == 0 {
		return true
	}
	return allNonDrawersGuessed(sess, players)
}

func allNonDrawersGuessed(sess *models.GameSession, players map[models.PlayerID]models.Player) bool {
	guessers := 0
	for _, p := range models.ReadyPlayersInJoinOrder(players) {
		if p.ID == sess.CurrentDrawer {
			continue
		}
		guessers++
		if !sess.HasGuessed(p.ID) {
			return false
		}
	}
	return guessers > 0
}
