package optimistic

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/sketchwager/internal/models"
)

// Kind identifies what a pending optimistic action anticipates.
type Kind string

const (
	KindChatMessage Kind = "chat_message"
	KindPayment     Kind = "payment"
)

// Marker is a local-only record of an optimistic mutation awaiting
// confirmation from the replicated store. Markers are owned exclusively
// by the originating client and are never replicated.
type Marker struct {
	ActionID  string
	Kind      Kind
	AppliedAt time.Time

	// Message holds the full local copy for chat actions, including the
	// literal text of a correct guess that the replicated log masks.
	Message *models.ChatMessage
	// PlayerID is the payer for payment actions.
	PlayerID models.PlayerID
}

// ViewMessage is a chat entry as the local client should render it:
// either confirmed, or a provisional optimistic copy.
type ViewMessage struct {
	models.ChatMessage
	Provisional bool
}

// Reconciler tracks pending optimistic actions and merges them with
// confirmed snapshots. Reconciliation is idempotent: feeding the same
// confirmed snapshot twice clears nothing twice and never double-applies
// an action that arrived both optimistically and confirmed.
type Reconciler struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	pending map[string]*Marker

	// authoredText retains the literal text of the local player's own
	// correct guesses past confirmation. The replicated log masks them;
	// only the author keeps seeing what they typed.
	authoredText map[string]string
}

func NewReconciler(clock clockwork.Clock) *Reconciler {
	return &Reconciler{
		clock:        clock,
		pending:      make(map[string]*Marker),
		authoredText: make(map[string]string),
	}
}

// ApplyMessage registers an optimistic chat entry before its replicated
// write is issued.
func (r *Reconciler) ApplyMessage(msg models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[msg.ID] = &Marker{
		ActionID:  msg.ID,
		Kind:      KindChatMessage,
		AppliedAt: r.clock.Now(),
		Message:   &msg,
	}
	if msg.IsCorrect {
		r.authoredText[msg.ID] = msg.Text
	}
}

// ApplyPayment registers an optimistic paid flag for the local player
// while the deposit transaction is in flight.
func (r *Reconciler) ApplyPayment(actionID string, player models.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[actionID] = &Marker{
		ActionID:  actionID,
		Kind:      KindPayment,
		AppliedAt: r.clock.Now(),
		PlayerID:  player,
	}
}

// Rollback discards a pending action whose underlying operation failed,
// restoring the pre-optimistic view. Unknown ids are a no-op, so rollback
// after confirmation does not undo real state.
func (r *Reconciler) Rollback(actionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[actionID]; ok {
		delete(r.pending, actionID)
		delete(r.authoredText, actionID)
	}
}

// ReconcileMessages clears chat markers whose ids appear in the confirmed
// log; those entries are now real.
func (r *Reconciler) ReconcileMessages(confirmed []models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range confirmed {
		if m, ok := r.pending[msg.ID]; ok && m.Kind == KindChatMessage {
			delete(r.pending, msg.ID)
		}
	}
}

// ReconcilePlayers clears payment markers once the confirmed player
// record shows the deposit.
func (r *Reconciler) ReconcilePlayers(players map[models.PlayerID]models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.pending {
		if m.Kind != KindPayment {
			continue
		}
		if p, ok := players[m.PlayerID]; ok && p.HasPaid {
			delete(r.pending, id)
		}
	}
}

// MergedMessages renders the confirmed log plus still-pending optimistic
// entries, the latter flagged provisional. A pending entry whose id is
// already confirmed is shown once, from the confirmed copy.
func (r *Reconciler) MergedMessages(confirmed []models.ChatMessage) []ViewMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ViewMessage, 0, len(confirmed)+len(r.pending))
	seen := make(map[string]struct{}, len(confirmed))
	for _, msg := range confirmed {
		seen[msg.ID] = struct{}{}
		if text, ok := r.authoredText[msg.ID]; ok && msg.Text == "" {
			msg.Text = text
		}
		out = append(out, ViewMessage{ChatMessage: msg})
	}
	for _, m := range r.pending {
		if m.Kind != KindChatMessage {
			continue
		}
		if _, ok := seen[m.Message.ID]; ok {
			continue
		}
		out = append(out, ViewMessage{ChatMessage: *m.Message, Provisional: true})
	}
	return out
}

// PlayerView overlays provisional paid flags on the confirmed player set.
func (r *Reconciler) PlayerView(players map[models.PlayerID]models.Player) map[models.PlayerID]models.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[models.PlayerID]models.Player, len(players))
	for id, p := range players {
		out[id] = p
	}
	for _, m := range r.pending {
		if m.Kind != KindPayment {
			continue
		}
		if p, ok := out[m.PlayerID]; ok && !p.HasPaid {
			p.HasPaid = true
			out[m.PlayerID] = p
		}
	}
	return out
}

// Pending reports whether an action is still awaiting confirmation.
func (r *Reconciler) Pending(actionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[actionID]
	return ok
}
