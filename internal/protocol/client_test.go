package protocol

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/event"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingTransport) ID() string { return "recording" }

func (r *recordingTransport) Send(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, string(data))
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func newTestClient() (*Client, *recordingTransport) {
	t := &recordingTransport{}
	return NewClient(t, slog.New(slog.NewTextHandler(io.Discard, nil))), t
}

func TestDecode_Tags(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  event.Name
	}{
		{"new game", `{"NewGame":{"game_id":"g1"}}`, EventNewGame},
		{"game list", `{"GameList":{"games":[]}}`, EventGameList},
		{"remove game", `{"RemoveGame":"g1"}`, EventGameList},
		{"game state", `{"GameState":{"galaxy":{"time":5,"planets":[],"moves":[]}}}`, EventGameState},
		{"possession", `{"Possession":1}`, EventPossession},
		{"possession legacy spelling", `{"Possesion":1}`, EventPossession},
		{"map list", `{"MapList":{}}`, EventMapList},
		{"players", `{"GamePlayers":[{"name":"ada"}]}`, EventGamePlayers},
		{"time", `{"Time":1234}`, EventTime},
		{"error", `{"Error":"game is full"}`, EventError},
		{"unknown object", `{"TimedGameMove":{"time":1}}`, ""},
		{"unknown unit", `"Heartbeat"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient()
			got, err := c.Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventPossessionName(t *testing.T) {
	assert.Equal(t, event.Name("Possession"), EventPossession)

	c, _ := newTestClient()
	_, err := c.Decode([]byte(`{"Possesion":3}`))
	require.NoError(t, err)

	p, ok := c.Possession()
	require.True(t, ok)
	assert.Equal(t, uint32(3), p)
}

func TestDecode_Malformed(t *testing.T) {
	frames := []string{
		`not json`,
		`42`,
		`[]`,
		`{}`,
		`{"GameList":{"games":[]},"NewGame":{"game_id":"x"}}`,
		`{"NewGame":"g1"}`,
		`{"RemoveGame":5}`,
		`{"Possession":"one"}`,
		`{"GameState":{}}`,
		`"GameList"`,
	}

	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			c, _ := newTestClient()
			_, err := c.Decode([]byte(frame))
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestDecode_GameListLifecycle(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Decode([]byte(`{"GameList":{"games":[{"game_id":"a"},{"game_id":"b"}]}}`))
	require.NoError(t, err)
	_, err = c.Decode([]byte(`{"NewGame":{"game_id":"c"}}`))
	require.NoError(t, err)
	_, err = c.Decode([]byte(`{"RemoveGame":"a"}`))
	require.NoError(t, err)

	assert.Equal(t, []GameMetadata{{GameID: "b"}, {GameID: "c"}}, c.Games())
}

func TestDecode_Maps(t *testing.T) {
	c, _ := newTestClient()

	frame := `{"MapList":{
		"spiral":{"size":{"x":100,"y":80},"name":"Spiral","planets":[
			{"x":1,"y":2,"start_value":10,"radius":5,"possession":[0,1],"multiplier":1.5}
		]},
		"duel":{"size":{"x":50,"y":50},"name":"Duel","planets":[]}
	}}`
	_, err := c.Decode([]byte(frame))
	require.NoError(t, err)

	assert.Equal(t, []string{"duel", "spiral"}, c.Maps())

	m, ok := c.Map("spiral")
	require.True(t, ok)
	assert.Equal(t, "Spiral", m.Name)
	assert.Equal(t, MapSize{X: 100, Y: 80}, m.Size)
	require.Len(t, m.Planets, 1)
	assert.Equal(t, []uint32{0, 1}, m.Planets[0].Possession)

	_, ok = c.Map("missing")
	assert.False(t, ok)
}

func TestDecode_GameRequiresJoinedGame(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Decode([]byte(`{"Game":{"map":{},"state":null,"players":[]}}`))
	assert.ErrorIs(t, err, ErrNoGameJoined)

	require.NoError(t, c.EnterGame(GameMetadata{GameID: "g1"}))

	name, err := c.Decode([]byte(`{"Game":{"map":{},"state":null,"players":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, EventGame, name)
	assert.JSONEq(t, `{"map":{},"state":null,"players":[]}`, string(c.Game()))
}

func TestDecode_GameStateAndTime(t *testing.T) {
	c, _ := newTestClient()

	_, ok := c.GameTime()
	assert.False(t, ok)

	_, err := c.Decode([]byte(`{"GameState":{"galaxy":{"time":42,"planets":[],"moves":[]}}}`))
	require.NoError(t, err)
	_, err = c.Decode([]byte(`{"Possession":2}`))
	require.NoError(t, err)
	_, err = c.Decode([]byte(`{"Time":99}`))
	require.NoError(t, err)

	gt, ok := c.GameTime()
	require.True(t, ok)
	assert.Equal(t, uint32(42), gt)

	p, ok := c.Possession()
	require.True(t, ok)
	assert.Equal(t, uint32(2), p)

	st, ok := c.ServerTime()
	require.True(t, ok)
	assert.Equal(t, uint64(99), st)
}

func TestDecode_PlayersAndError(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Decode([]byte(`{"GamePlayers":{"game_id":"g1","players":[{"name":"ada"},{"name":"bob"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, []Player{{Name: "ada"}, {Name: "bob"}}, c.Players())

	_, err = c.Decode([]byte(`{"Error":"game is full"}`))
	require.NoError(t, err)
	assert.Equal(t, "game is full", c.LastError())
}

func TestCommands(t *testing.T) {
	c, tr := newTestClient()

	require.NoError(t, c.SetName("ada"))
	require.NoError(t, c.CreateGame("spiral"))
	require.NoError(t, c.EnterGame(GameMetadata{GameID: "g1"}))
	require.NoError(t, c.StartGame())
	require.NoError(t, c.MakeMove(3, 7))
	require.NoError(t, c.RequestTime())
	require.NoError(t, c.ExitGame())

	frames := tr.frames()
	require.Len(t, frames, 7)
	assert.JSONEq(t, `{"SetName":{"name":"ada"}}`, frames[0])
	assert.JSONEq(t, `{"CreateGame":{"map_id":"spiral"}}`, frames[1])
	assert.JSONEq(t, `{"EnterGame":"g1"}`, frames[2])
	assert.Equal(t, `"StartGame"`, frames[3])
	assert.JSONEq(t, `{"GameMove":{"to":7,"from":3}}`, frames[4])
	assert.JSONEq(t, `{"Time":0}`, frames[5])
	assert.Equal(t, `"ExitGame"`, frames[6])

	_, joined := c.CurrentGame()
	assert.False(t, joined)
}

func TestCommands_EnterAndExit(t *testing.T) {
	c, _ := newTestClient()

	require.NoError(t, c.EnterGame(GameMetadata{GameID: "g1"}))
	game, ok := c.CurrentGame()
	require.True(t, ok)
	assert.Equal(t, "g1", game.GameID)

	_, err := c.Decode([]byte(`{"Possession":0}`))
	require.NoError(t, err)

	require.NoError(t, c.ExitGame())
	_, ok = c.Possession()
	assert.False(t, ok)
	assert.Nil(t, c.Game())
}

func TestCommands_NoTransport(t *testing.T) {
	c := NewClient(nil, nil)

	assert.ErrorIs(t, c.SetName("ada"), connection.ErrNotConnected)
	assert.ErrorIs(t, c.EnterGame(GameMetadata{GameID: "g1"}), connection.ErrNotConnected)

	_, joined := c.CurrentGame()
	assert.False(t, joined)
}

func TestBind_PreservesState(t *testing.T) {
	c, first := newTestClient()

	_, err := c.Decode([]byte(`{"GameList":{"games":[{"game_id":"a"}]}}`))
	require.NoError(t, err)

	second := &recordingTransport{}
	c.Bind(second)

	require.NoError(t, c.StartGame())

	assert.Empty(t, first.frames())
	assert.Equal(t, []string{`"StartGame"`}, second.frames())
	assert.Equal(t, []GameMetadata{{GameID: "a"}}, c.Games())
}
