package models

import (
	"sort"
	"time"
)

// Phase is the lifecycle stage of a game session. A session code moves
// through lobby -> playing -> finished exactly once; a new game requires a
// new session code.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// GameSession is the singleton replicated state for one session code.
//
// All fields are owned collectively: every participant derives the same
// corrections from the same rules, and last-writer-wins convergence in the
// store resolves concurrent writes. The remaining round time is never
// stored; it is derived from RoundStartTime so that N ticking clients
// cannot drift a shared counter.
type GameSession struct {
	SessionCode      string    `json:"session_code"`
	Phase            Phase     `json:"phase"`
	CurrentRound     int       `json:"current_round"`
	TotalRounds      int       `json:"total_rounds"`
	CurrentDrawer    PlayerID  `json:"current_drawer,omitempty"`
	CurrentWord      string    `json:"current_word,omitempty"`
	RoundDurationSec int       `json:"round_duration_sec"`
	RoundStartTime   time.Time `json:"round_start_time"`
	WagerAmount      string    `json:"wager_amount"`
	LobbyOwner       PlayerID  `json:"lobby_owner,omitempty"`

	// OwnerEpoch increments every time the elected owner changes. Owner
	// gated mutations carry the epoch they were computed under so a client
	// that lost ownership between observing and writing can be detected.
	OwnerEpoch int64 `json:"owner_epoch"`

	Scores           map[PlayerID]int `json:"scores"`
	GuessedCorrectly []PlayerID       `json:"guessed_correctly"`

	// RoundAdvanceInProgress suppresses duplicate round-advance triggers
	// from multiple clients that all observed the advance condition. It is
	// replicated state, not a process-local flag, so that two clients who
	// both believe they are the owner cannot double-rotate a round.
	RoundAdvanceInProgress bool `json:"round_advance_in_progress"`

	PrizeDistributed bool      `json:"prize_distributed"`
	Winner           PlayerID  `json:"winner,omitempty"`
	PayoutTxHash     string    `json:"payout_tx_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// TimeRemaining derives the canonical seconds left in the current round.
// Every client computes this locally from the shared round start time.
func (s *GameSession) TimeRemaining(now time.Time) int {
	if s.Phase != PhasePlaying || s.RoundStartTime.IsZero() {
		return 0
	}
	remaining := s.RoundDurationSec - int(now.Sub(s.RoundStartTime).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RoundDeadline returns the instant at which the current round times out.
func (s *GameSession) RoundDeadline() time.Time {
	return s.RoundStartTime.Add(time.Duration(s.RoundDurationSec) * time.Second)
}

// HasGuessed reports whether the player already guessed correctly this
// round.
func (s *GameSession) HasGuessed(id PlayerID) bool {
	for _, g := range s.GuessedCorrectly {
		if g == id {
			return true
		}
	}
	return false
}

// WinnerID returns the player with the maximum score. Ties break by
// lexicographic player id so every evaluator computes the same winner.
func (s *GameSession) WinnerID() PlayerID {
	var winner PlayerID
	best := 0
	ids := make([]PlayerID, 0, len(s.Scores))
	for id := range s.Scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if winner == "" || s.Scores[id] > best {
			winner = id
			best = s.Scores[id]
		}
	}
	return winner
}

// ReadyPlayersInJoinOrder returns the ready subset ordered by JoinedAt,
// ties broken by id. Drawer selection and rotation both use this ordering
// so that every evaluator rotates identically.
func ReadyPlayersInJoinOrder(players map[PlayerID]Player) []Player {
	ready := make([]Player, 0, len(players))
	for _, p := range players {
		if p.Ready() {
			ready = append(ready, p)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].JoinedAt.Equal(ready[j].JoinedAt) {
			return ready[i].JoinedAt.Before(ready[j].JoinedAt)
		}
		return ready[i].ID < ready[j].ID
	})
	return ready
}
