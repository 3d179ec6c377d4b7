package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/replicated"
)

// Repository provides typed access to the session's replicated slots.
// Reads against unwritten slots return empty collections, not errors:
// slots propagate independently and every consumer must tolerate whatever
// partial state has arrived so far.
type Repository struct {
	store replicated.Store
}

func NewRepository(store replicated.Store) *Repository {
	return &Repository{store: store}
}

// GameSession returns the replicated session singleton.
// replicated.ErrNoValue passes through when no session exists yet.
func (r *Repository) GameSession(ctx context.Context) (*models.GameSession, error) {
	var sess models.GameSession
	if err := r.store.Get(ctx, replicated.SlotGameState, &sess); err != nil {
		if errors.Is(err, replicated.ErrNoValue) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}
	return &sess, nil
}

func (r *Repository) SaveGameSession(ctx context.Context, sess *models.GameSession) error {
	if err := r.store.Set(ctx, replicated.SlotGameState, sess); err != nil {
		return fmt.Errorf("failed to save game session: %w", err)
	}
	return nil
}

func (r *Repository) Players(ctx context.Context) (map[models.PlayerID]models.Player, error) {
	players := make(map[models.PlayerID]models.Player)
	if err := r.store.Get(ctx, replicated.SlotPlayers, &players); err != nil && !errors.Is(err, replicated.ErrNoValue) {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return players, nil
}

func (r *Repository) SavePlayers(ctx context.Context, players map[models.PlayerID]models.Player) error {
	if err := r.store.Set(ctx, replicated.SlotPlayers, players); err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}
	return nil
}

func (r *Repository) ChatMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := r.store.Get(ctx, replicated.SlotChatMessages, &msgs); err != nil && !errors.Is(err, replicated.ErrNoValue) {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	return msgs, nil
}

// AppendChatMessage appends to the message log via read-modify-write. Two
// concurrent appenders can drop one another's tail under last-writer-wins;
// the log is best-effort by design and the authoritative score lives in
// the gameState slot, not here.
func (r *Repository) AppendChatMessage(ctx context.Context, msg models.ChatMessage) error {
	msgs, err := r.ChatMessages(ctx)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)
	if err := r.store.Set(ctx, replicated.SlotChatMessages, msgs); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *Repository) UsedWords(ctx context.Context) ([]string, error) {
	var used []string
	if err := r.store.Get(ctx, replicated.SlotUsedWords, &used); err != nil && !errors.Is(err, replicated.ErrNoValue) {
		return nil, fmt.Errorf("failed to get used words: %w", err)
	}
	return used, nil
}

func (r *Repository) SaveUsedWords(ctx context.Context, used []string) error {
	if err := r.store.Set(ctx, replicated.SlotUsedWords, used); err != nil {
		return fmt.Errorf("failed to save used words: %w", err)
	}
	return nil
}

func (r *Repository) DrawingPaths(ctx context.Context) ([]models.Stroke, error) {
	var strokes []models.Stroke
	if err := r.store.Get(ctx, replicated.SlotDrawingPaths, &strokes); err != nil && !errors.Is(err, replicated.ErrNoValue) {
		return nil, fmt.Errorf("failed to get drawing paths: %w", err)
	}
	return strokes, nil
}

func (r *Repository) AppendStroke(ctx context.Context, stroke models.Stroke) error {
	strokes, err := r.DrawingPaths(ctx)
	if err != nil {
		return err
	}
	strokes = append(strokes, stroke)
	if err := r.store.Set(ctx, replicated.SlotDrawingPaths, strokes); err != nil {
		return fmt.Errorf("failed to append stroke: %w", err)
	}
	return nil
}

// ClearDrawing empties the drawing surface, done at every round
// transition.
func (r *Repository) ClearDrawing(ctx context.Context) error {
	if err := r.store.Set(ctx, replicated.SlotDrawingPaths, []models.Stroke{}); err != nil {
		return fmt.Errorf("failed to clear drawing: %w", err)
	}
	return nil
}

// Watch exposes the store's slot-change notifications.
func (r *Repository) Watch(ctx context.Context) (<-chan replicated.Update, error) {
	return r.store.Watch(ctx)
}
