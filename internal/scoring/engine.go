package scoring

import (
	"errors"
	"strings"
	"time"

	"github.com/mcdev12/sketchwager/internal/models"
)

var (
	// ErrNotPlaying rejects guesses outside the playing phase.
	ErrNotPlaying = errors.New("session is not in the playing phase")
	// ErrDrawerGuess rejects guesses from the current drawer.
	ErrDrawerGuess = errors.New("drawer cannot guess")
	// ErrAlreadyGuessed rejects re-entrant guesses after acceptance; a
	// correct guess is scored exactly once.
	ErrAlreadyGuessed = errors.New("player already guessed correctly")
)

// positionBonus rewards guess order. Guessers past fourth place get the
// clamped tail value.
var positionBonus = []int{100, 80, 60, 40}

// DrawerPoints is the flat credit to the drawer for each accepted guess.
const DrawerPoints = 20

// Result is the outcome of evaluating one guess.
type Result struct {
	// Correct is true when the guess matched the secret word.
	Correct bool
	// GuesserPoints is the total credited to the guesser (position bonus
	// plus time bonus). Zero when the guess was wrong.
	GuesserPoints int
	// DrawerPoints is the flat credit to the drawer. Zero when the guess
	// was wrong.
	DrawerPoints int
	// Position is the zero-based order of this correct guess within the
	// round.
	Position int
}

// EvaluateGuess checks a guess against the session's secret word and, on
// a match, computes the points for the guesser and drawer. It is pure:
// applying the result to the session is the caller's job, so evaluation
// stays re-runnable against whatever partial state an evaluator holds.
//
// The match rule is case-insensitive, whitespace-trimmed, exact equality.
// No fuzzy matching and no partial credit.
func EvaluateGuess(sess *models.GameSession, guesser models.PlayerID, text string, now time.Time) (Result, error) {
	if sess.Phase != models.PhasePlaying {
		return Result{}, ErrNotPlaying
	}
	if guesser == sess.CurrentDrawer {
		return Result{}, ErrDrawerGuess
	}
	if sess.HasGuessed(guesser) {
		return Result{}, ErrAlreadyGuessed
	}

	if !strings.EqualFold(strings.TrimSpace(text), sess.CurrentWord) {
		return Result{}, nil
	}

	position := len(sess.GuessedCorrectly)
	bonus := positionBonus[len(positionBonus)-1]
	if position < len(positionBonus) {
		bonus = positionBonus[position]
	}

	return Result{
		Correct:       true,
		GuesserPoints: bonus + timeBonus(sess, now),
		DrawerPoints:  DrawerPoints,
		Position:      position,
	}, nil
}

// timeBonus scales the remaining round time into 0..20 points.
func timeBonus(sess *models.GameSession, now time.Time) int {
	if sess.RoundDurationSec <= 0 {
		return 0
	}
	remaining := sess.TimeRemaining(now)
	return remaining * 20 / sess.RoundDurationSec
}

// Apply credits an accepted result to the session: the guesser joins
// guessedCorrectly (monotonic within a round) and both scores move.
func Apply(sess *models.GameSession, guesser models.PlayerID, res Result) {
	if !res.Correct || sess.HasGuessed(guesser) {
		return
	}
	if sess.Scores == nil {
		sess.Scores = make(map[models.PlayerID]int)
	}
	sess.GuessedCorrectly = append(sess.GuessedCorrectly, guesser)
	sess.Scores[guesser] += res.GuesserPoints
	if sess.CurrentDrawer != "" {
		sess.Scores[sess.CurrentDrawer] += res.DrawerPoints
	}
}
