package gateway

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/rs/zerolog/log"
)

// Commands is what the gateway needs from the game client. Errors coming
// back are surfaced to the invoking renderer only; owner/validation
// rejections never become broadcast error state.
type Commands interface {
	SubmitGuessText(ctx context.Context, text string) error
	SendChat(ctx context.Context, text string) error
	SetReady(ctx context.Context, ready bool) error
	StartGame(ctx context.Context) error
	Deposit(ctx context.Context) error
	Kick(ctx context.Context, target models.PlayerID) error
	Draw(ctx context.Context, data map[string]any) error
}

// command is the renderer-to-core message envelope.
type command struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Ready  bool           `json:"ready,omitempty"`
	Target string         `json:"target,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// commandResult is sent back to the issuing renderer only.
type commandResult struct {
	Type  string `json:"type"`
	Cmd   string `json:"cmd"`
	Error string `json:"error,omitempty"`
}

func (h *Hub) handleCommand(c *Connection, raw []byte) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("malformed renderer command")
		return
	}

	ctx := context.Background()
	var err error
	switch cmd.Type {
	case "guess":
		err = h.commands.SubmitGuessText(ctx, cmd.Text)
	case "chat":
		err = h.commands.SendChat(ctx, cmd.Text)
	case "ready":
		err = h.commands.SetReady(ctx, cmd.Ready)
	case "start":
		err = h.commands.StartGame(ctx)
	case "deposit":
		err = h.commands.Deposit(ctx)
	case "kick":
		err = h.commands.Kick(ctx, models.PlayerID(cmd.Target))
	case "draw":
		err = h.commands.Draw(ctx, cmd.Data)
	default:
		log.Debug().Str("type", cmd.Type).Msg("unknown renderer command")
		return
	}

	result := commandResult{Type: "result", Cmd: cmd.Type}
	if err != nil {
		result.Error = err.Error()
		log.Debug().Err(err).Str("cmd", cmd.Type).Msg("renderer command rejected")
	}
	if data, merr := json.Marshal(result); merr == nil {
		select {
		case c.Send <- data:
		default:
		}
	}
}
