package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchwager/internal/models"
)

type fakeCommands struct {
	calls  []string
	text   string
	ready  bool
	target models.PlayerID
	data   map[string]any
	err    error
}

func (f *fakeCommands) SubmitGuessText(ctx context.Context, text string) error {
	f.calls = append(f.calls, "guess")
	f.text = text
	return f.err
}

func (f *fakeCommands) SendChat(ctx context.Context, text string) error {
	f.calls = append(f.calls, "chat")
	f.text = text
	return f.err
}

func (f *fakeCommands) SetReady(ctx context.Context, ready bool) error {
	f.calls = append(f.calls, "ready")
	f.ready = ready
	return f.err
}

func (f *fakeCommands) StartGame(ctx context.Context) error {
	f.calls = append(f.calls, "start")
	return f.err
}

func (f *fakeCommands) Deposit(ctx context.Context) error {
	f.calls = append(f.calls, "deposit")
	return f.err
}

func (f *fakeCommands) Kick(ctx context.Context, target models.PlayerID) error {
	f.calls = append(f.calls, "kick")
	f.target = target
	return f.err
}

func (f *fakeCommands) Draw(ctx context.Context, data map[string]any) error {
	f.calls = append(f.calls, "draw")
	f.data = data
	return f.err
}

func newTestHub(cmds Commands) (*Hub, *Connection) {
	h := NewHub(DefaultConnectionConfig(), cmds)
	c := &Connection{ID: "test-conn", Send: make(chan []byte, 8), hub: h}
	return h, c
}

func readResult(t *testing.T, c *Connection) commandResult {
	t.Helper()
	select {
	case data := <-c.Send:
		var res commandResult
		require.NoError(t, json.Unmarshal(data, &res))
		return res
	default:
		t.Fatal("no result sent to connection")
		return commandResult{}
	}
}

func TestHandleCommand_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"guess", `{"type":"guess","text":"cat"}`, "guess"},
		{"chat", `{"type":"chat","text":"hello"}`, "chat"},
		{"ready", `{"type":"ready","ready":true}`, "ready"},
		{"start", `{"type":"start"}`, "start"},
		{"deposit", `{"type":"deposit"}`, "deposit"},
		{"kick", `{"type":"kick","target":"0xabc"}`, "kick"},
		{"draw", `{"type":"draw","data":{"x":1}}`, "draw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCommands{}
			h, c := newTestHub(fake)

			h.handleCommand(c, []byte(tt.raw))

			require.Equal(t, []string{tt.want}, fake.calls)
			res := readResult(t, c)
			assert.Equal(t, "result", res.Type)
			assert.Equal(t, tt.want, res.Cmd)
			assert.Empty(t, res.Error)
		})
	}
}

func TestHandleCommand_ForwardsArguments(t *testing.T) {
	fake := &fakeCommands{}
	h, c := newTestHub(fake)

	h.handleCommand(c, []byte(`{"type":"guess","text":"is it a cat?"}`))
	assert.Equal(t, "is it a cat?", fake.text)

	h.handleCommand(c, []byte(`{"type":"kick","target":"0xabc"}`))
	assert.Equal(t, models.PlayerID("0xabc"), fake.target)

	h.handleCommand(c, []byte(`{"type":"ready","ready":true}`))
	assert.True(t, fake.ready)
}

func TestHandleCommand_ErrorsGoToIssuerOnly(t *testing.T) {
	fake := &fakeCommands{err: errors.New("not the lobby owner")}
	h, issuer := newTestHub(fake)

	other := &Connection{ID: "other", Send: make(chan []byte, 8), hub: h}
	h.connections[other] = true

	h.handleCommand(issuer, []byte(`{"type":"start"}`))

	res := readResult(t, issuer)
	assert.Equal(t, "not the lobby owner", res.Error)
	assert.Empty(t, other.Send, "rejections are never broadcast")
}

func TestHandleCommand_IgnoresMalformedAndUnknown(t *testing.T) {
	fake := &fakeCommands{}
	h, c := newTestHub(fake)

	h.handleCommand(c, []byte(`not json`))
	h.handleCommand(c, []byte(`{"type":"teleport"}`))

	assert.Empty(t, fake.calls)
	assert.Empty(t, c.Send)
}

func TestBroadcastSnapshot_FansOutToAllConnections(t *testing.T) {
	h, a := newTestHub(&fakeCommands{})
	b := &Connection{ID: "b", Send: make(chan []byte, 8), hub: h}
	h.connections[a] = true
	h.connections[b] = true

	h.BroadcastSnapshot(map[string]string{"phase": "playing"})
	h.fanOut(<-h.broadcastCh)

	for _, c := range []*Connection{a, b} {
		select {
		case data := <-c.Send:
			assert.Contains(t, string(data), "playing")
		default:
			t.Fatalf("connection %s got no snapshot", c.ID)
		}
	}
}
