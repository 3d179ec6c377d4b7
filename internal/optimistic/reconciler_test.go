package optimistic

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchwager/internal/models"
)

func newTestReconciler() *Reconciler {
	return NewReconciler(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func chatMsg(id, text string) models.ChatMessage {
	return models.ChatMessage{ID: id, AuthorID: "p2", Text: text, IsGuess: true}
}

func TestMergedMessages_PendingShownProvisionally(t *testing.T) {
	r := newTestReconciler()
	r.ApplyMessage(chatMsg("m1", "is it a dog?"))

	merged := r.MergedMessages(nil)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Provisional)
	assert.Equal(t, "is it a dog?", merged[0].Text)
	assert.True(t, r.Pending("m1"))
}

func TestReconcileMessages_ConfirmationClearsMarker(t *testing.T) {
	r := newTestReconciler()
	r.ApplyMessage(chatMsg("m1", "is it a dog?"))

	confirmed := []models.ChatMessage{chatMsg("m1", "is it a dog?")}
	r.ReconcileMessages(confirmed)

	assert.False(t, r.Pending("m1"))
	merged := r.MergedMessages(confirmed)
	require.Len(t, merged, 1, "confirmed entry shown exactly once")
	assert.False(t, merged[0].Provisional)
}

func TestReconcileMessages_Idempotent(t *testing.T) {
	r := newTestReconciler()
	r.ApplyMessage(chatMsg("m1", "is it a dog?"))

	confirmed := []models.ChatMessage{chatMsg("m1", "is it a dog?")}
	r.ReconcileMessages(confirmed)
	r.ReconcileMessages(confirmed)

	merged := r.MergedMessages(confirmed)
	assert.Len(t, merged, 1)
}

func TestMergedMessages_ConfirmedCopyWinsOverPending(t *testing.T) {
	r := newTestReconciler()
	r.ApplyMessage(chatMsg("m1", "local copy"))

	// The confirmed entry arrives before reconciliation runs; the view
	// must still show the action once.
	confirmed := []models.ChatMessage{chatMsg("m1", "confirmed copy")}
	merged := r.MergedMessages(confirmed)
	require.Len(t, merged, 1)
	assert.False(t, merged[0].Provisional)
	assert.Equal(t, "confirmed copy", merged[0].Text)
}

func TestRollback_RemovesPendingOnly(t *testing.T) {
	r := newTestReconciler()
	r.ApplyMessage(chatMsg("m1", "is it a dog?"))

	r.Rollback("m1")
	assert.False(t, r.Pending("m1"))
	assert.Empty(t, r.MergedMessages(nil))

	// Rolling back an already-confirmed or unknown action is a no-op.
	r.Rollback("m1")
	r.Rollback("never-existed")
}

func TestAuthoredText_SurvivesMasking(t *testing.T) {
	r := newTestReconciler()
	correct := chatMsg("m1", "cat")
	correct.IsCorrect = true
	r.ApplyMessage(correct)

	// The replicated log carries the guess with its text masked.
	masked := correct
	masked.Text = ""
	confirmed := []models.ChatMessage{masked}
	r.ReconcileMessages(confirmed)

	merged := r.MergedMessages(confirmed)
	require.Len(t, merged, 1)
	assert.Equal(t, "cat", merged[0].Text, "author keeps seeing their own guess")
	assert.True(t, merged[0].IsCorrect)
}

func TestAuthoredText_OtherClientsSeeMask(t *testing.T) {
	// A reconciler that never authored the guess has no retained text.
	r := newTestReconciler()
	masked := chatMsg("m1", "")
	masked.IsCorrect = true

	merged := r.MergedMessages([]models.ChatMessage{masked})
	require.Len(t, merged, 1)
	assert.Empty(t, merged[0].Text)
}

func TestPayment_OverlayAndReconcile(t *testing.T) {
	r := newTestReconciler()
	players := map[models.PlayerID]models.Player{
		"p2": {ID: "p2", HasPaid: false},
	}

	r.ApplyPayment("pay-1", "p2")

	view := r.PlayerView(players)
	assert.True(t, view["p2"].HasPaid, "deposit shows immediately")
	assert.False(t, players["p2"].HasPaid, "confirmed state untouched")

	// Confirmation arrives via the replicated players slot.
	players["p2"] = models.Player{ID: "p2", HasPaid: true}
	r.ReconcilePlayers(players)

	assert.False(t, r.Pending("pay-1"))
	assert.True(t, r.PlayerView(players)["p2"].HasPaid)
}

func TestPayment_RollbackRestoresUnpaid(t *testing.T) {
	r := newTestReconciler()
	players := map[models.PlayerID]models.Player{
		"p2": {ID: "p2", HasPaid: false},
	}

	r.ApplyPayment("pay-1", "p2")
	r.Rollback("pay-1")

	assert.False(t, r.PlayerView(players)["p2"].HasPaid)
}

func TestReconcilePlayers_IgnoresUnpaidConfirmation(t *testing.T) {
	r := newTestReconciler()
	players := map[models.PlayerID]models.Player{
		"p2": {ID: "p2", HasPaid: false},
	}

	r.ApplyPayment("pay-1", "p2")
	r.ReconcilePlayers(players)

	assert.True(t, r.Pending("pay-1"), "marker held until the deposit is visible")
}
