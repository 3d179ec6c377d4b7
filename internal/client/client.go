package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/optimistic"
	"github.com/mcdev12/sketchwager/internal/scheduler"
	"github.com/mcdev12/sketchwager/internal/scoring"
	"github.com/mcdev12/sketchwager/internal/session"
	"github.com/rs/zerolog/log"
)

// Client is the local participant's command surface: everything the
// rendering layer can do flows through here. It applies mutations
// optimistically, issues the replicated writes, and rolls back on
// failure.
type Client struct {
	repo  *session.Repository
	svc   *session.Service
	sched *scheduler.Scheduler
	recon *optimistic.Reconciler
	gate  escrow.Gate
	clock clockwork.Clock
	self  models.PlayerID
}

func New(repo *session.Repository, svc *session.Service, sched *scheduler.Scheduler, recon *optimistic.Reconciler, gate escrow.Gate, clock clockwork.Clock, self models.PlayerID) *Client {
	return &Client{
		repo:  repo,
		svc:   svc,
		sched: sched,
		recon: recon,
		gate:  gate,
		clock: clock,
		self:  self,
	}
}

// SubmitGuess evaluates a guess locally, applies any score change to the
// replicated session, and appends the message to the log. The literal
// text of a correct guess goes only into the local optimistic copy; the
// replicated entry carries the correct marker with the text masked.
func (c *Client) SubmitGuess(ctx context.Context, text string) (scoring.Result, error) {
	sess, err := c.repo.GameSession(ctx)
	if err != nil {
		return scoring.Result{}, err
	}

	res, err := scoring.EvaluateGuess(sess, c.self, text, c.clock.Now())
	if err != nil {
		// Precondition rejections are local no-ops surfaced to the
		// guesser only.
		return scoring.Result{}, err
	}

	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		AuthorID:  c.self,
		Text:      text,
		Timestamp: c.clock.Now(),
		IsGuess:   true,
		IsCorrect: res.Correct,
	}
	c.recon.ApplyMessage(msg)

	if res.Correct {
		scoring.Apply(sess, c.self, res)
		if err := c.repo.SaveGameSession(ctx, sess); err != nil {
			c.recon.Rollback(msg.ID)
			return scoring.Result{}, err
		}
	}

	replicatedCopy := msg
	if res.Correct {
		replicatedCopy.Text = ""
	}
	if err := c.repo.AppendChatMessage(ctx, replicatedCopy); err != nil {
		c.recon.Rollback(msg.ID)
		return scoring.Result{}, err
	}

	c.sched.Wake()
	return res, nil
}

// SubmitGuessText adapts SubmitGuess for callers that only care about
// rejection, like the render gateway.
func (c *Client) SubmitGuessText(ctx context.Context, text string) error {
	_, err := c.SubmitGuess(ctx, text)
	return err
}

// SendChat appends a plain, unscored chat message.
func (c *Client) SendChat(ctx context.Context, text string) error {
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		AuthorID:  c.self,
		Text:      text,
		Timestamp: c.clock.Now(),
	}
	c.recon.ApplyMessage(msg)
	if err := c.repo.AppendChatMessage(ctx, msg); err != nil {
		c.recon.Rollback(msg.ID)
		return err
	}
	return nil
}

// Deposit pays the wager into escrow, showing the paid state
// optimistically while the transaction is in flight and rolling it back
// if the provider or contract rejects it.
func (c *Client) Deposit(ctx context.Context) error {
	sess, err := c.repo.GameSession(ctx)
	if err != nil {
		return err
	}

	actionID := uuid.New().String()
	c.recon.ApplyPayment(actionID, c.self)

	if err := c.gate.DepositWager(ctx, sess.SessionCode); err != nil {
		c.recon.Rollback(actionID)
		return escrow.Classify(err)
	}
	if err := c.svc.ConfirmDeposit(ctx, c.self, ""); err != nil {
		c.recon.Rollback(actionID)
		return err
	}
	return nil
}

// SetReady forwards the ready toggle.
func (c *Client) SetReady(ctx context.Context, ready bool) error {
	return c.svc.SetReady(ctx, c.self, ready)
}

// StartGame forwards the owner-gated start.
func (c *Client) StartGame(ctx context.Context) error {
	return c.sched.StartGame(ctx)
}

// Kick forwards the owner-gated removal.
func (c *Client) Kick(ctx context.Context, target models.PlayerID) error {
	return c.svc.Kick(ctx, c.self, target)
}

// Draw relays a stroke from the local canvas into the drawing slot.
func (c *Client) Draw(ctx context.Context, data map[string]any) error {
	return c.repo.AppendStroke(ctx, models.Stroke{AuthorID: c.self, Data: data})
}

// Snapshot is the converged view handed to the rendering layer.
type Snapshot struct {
	Session       *models.GameSession               `json:"session"`
	Players       map[models.PlayerID]models.Player `json:"players"`
	Messages      []optimistic.ViewMessage          `json:"messages"`
	TimeRemaining int                               `json:"time_remaining"`
	IsDrawer      bool                              `json:"is_drawer"`
}

// Snapshot builds the local render view: optimistic overlays merged in,
// the secret word blanked unless the local player is the drawer.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	sess, err := c.repo.GameSession(ctx)
	if err != nil {
		return nil, err
	}
	players, err := c.repo.Players(ctx)
	if err != nil {
		return nil, err
	}
	confirmed, err := c.repo.ChatMessages(ctx)
	if err != nil {
		return nil, err
	}

	c.recon.ReconcileMessages(confirmed)
	c.recon.ReconcilePlayers(players)

	view := *sess
	isDrawer := sess.CurrentDrawer == c.self
	if !isDrawer && sess.Phase == models.PhasePlaying {
		view.CurrentWord = ""
	}

	return &Snapshot{
		Session:       &view,
		Players:       c.recon.PlayerView(players),
		Messages:      c.recon.MergedMessages(confirmed),
		TimeRemaining: sess.TimeRemaining(c.clock.Now()),
		IsDrawer:      isDrawer,
	}, nil
}

// Broadcaster receives render snapshots; the websocket gateway implements
// it.
type Broadcaster interface {
	BroadcastSnapshot(v any)
}

// Run pushes a fresh snapshot to the broadcaster on every replicated
// change, plus a once-a-second tick so the derived countdown stays live
// without any shared timer writes.
func (c *Client) Run(ctx context.Context, b Broadcaster) error {
	updates, err := c.repo.Watch(ctx)
	if err != nil {
		return err
	}

	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
		case <-ticker.Chan():
		}

		snap, err := c.Snapshot(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("snapshot not ready")
			continue
		}
		b.BroadcastSnapshot(snap)
	}
}
