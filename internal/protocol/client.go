package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/event"
)

var _ connection.Codec = (*Client)(nil)

// Client decodes game frames and sends game commands. Its state survives
// transport replacement; Bind only changes where commands are sent.
type Client struct {
	logger *slog.Logger

	mu            sync.RWMutex
	transport     connection.Transport
	games         []GameMetadata
	maps          map[string]Map
	players       []Player
	current       *GameMetadata
	possession    uint32
	hasPossession bool
	galaxy        json.RawMessage
	game          json.RawMessage
	serverTime    uint64
	hasServerTime bool
	lastError     string
}

// NewClient creates a client sending on t. t may be nil until Bind is called.
func NewClient(t connection.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		logger:    logger,
		transport: t,
		maps:      make(map[string]Map),
	}
}

// Bind points the client at a new transport.
func (c *Client) Bind(t connection.Transport) {
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()
}

// Decode applies one inbound frame and returns the event it produces.
// Unknown variants produce no event and no error.
func (c *Client) Decode(raw []byte) (event.Name, error) {
	if !gjson.ValidBytes(raw) {
		return "", ErrMalformedFrame
	}

	tag, payload, err := splitVariant(gjson.ParseBytes(raw))
	if err != nil {
		return "", err
	}

	switch tag {
	case "NewGame":
		var game GameMetadata
		if err := unmarshalPayload(tag, payload, &game); err != nil {
			return "", err
		}
		c.mu.Lock()
		c.games = append(c.games, game)
		c.mu.Unlock()
		return EventNewGame, nil

	case "RemoveGame":
		if payload.Type != gjson.String {
			return "", fmt.Errorf("%w: RemoveGame expects a game id", ErrMalformedFrame)
		}
		c.mu.Lock()
		c.games = slices.DeleteFunc(c.games, func(g GameMetadata) bool {
			return g.GameID == payload.Str
		})
		c.mu.Unlock()
		return EventGameList, nil

	case "GameList":
		var list struct {
			Games []GameMetadata `json:"games"`
		}
		if err := unmarshalPayload(tag, payload, &list); err != nil {
			return "", err
		}
		c.mu.Lock()
		c.games = list.Games
		c.mu.Unlock()
		return EventGameList, nil

	case "GameState":
		galaxy := payload.Get("galaxy")
		if !galaxy.Exists() {
			return "", fmt.Errorf("%w: GameState without galaxy", ErrMalformedFrame)
		}
		c.mu.Lock()
		c.galaxy = json.RawMessage(galaxy.Raw)
		c.mu.Unlock()
		c.logger.Debug("galaxy state received", "time", galaxy.Get("time").Uint())
		return EventGameState, nil

	case "Possession", "Possesion":
		if payload.Type != gjson.Number {
			return "", fmt.Errorf("%w: Possession expects a player index", ErrMalformedFrame)
		}
		c.mu.Lock()
		c.possession = uint32(payload.Uint())
		c.hasPossession = true
		c.mu.Unlock()
		return EventPossession, nil

	case "Game":
		if !payload.Exists() {
			return "", fmt.Errorf("%w: Game without payload", ErrMalformedFrame)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current == nil {
			return "", ErrNoGameJoined
		}
		c.game = json.RawMessage(payload.Raw)
		return EventGame, nil

	case "MapList":
		list := make(map[string]Map)
		if err := unmarshalPayload(tag, payload, &list); err != nil {
			return "", err
		}
		c.mu.Lock()
		c.maps = list
		c.mu.Unlock()
		return EventMapList, nil

	case "GamePlayers":
		players := payload
		if payload.IsObject() {
			players = payload.Get("players")
		}
		var list []Player
		if err := unmarshalPayload(tag, players, &list); err != nil {
			return "", err
		}
		c.mu.Lock()
		c.players = list
		c.mu.Unlock()
		return EventGamePlayers, nil

	case "Time":
		if payload.Type != gjson.Number {
			return "", fmt.Errorf("%w: Time expects a number", ErrMalformedFrame)
		}
		c.mu.Lock()
		c.serverTime = payload.Uint()
		c.hasServerTime = true
		c.mu.Unlock()
		return EventTime, nil

	case "Error":
		c.mu.Lock()
		c.lastError = payload.String()
		c.mu.Unlock()
		c.logger.Warn("server reported error", "message", payload.String())
		return EventError, nil

	default:
		c.logger.Debug("ignoring frame", "variant", tag)
		return "", nil
	}
}

// splitVariant returns the variant name and payload of a tagged frame.
func splitVariant(frame gjson.Result) (string, gjson.Result, error) {
	switch {
	case frame.Type == gjson.String:
		return frame.Str, gjson.Result{}, nil
	case frame.IsObject():
		var (
			tag     string
			payload gjson.Result
			keys    int
		)
		frame.ForEach(func(key, value gjson.Result) bool {
			tag = key.Str
			payload = value
			keys++
			return keys < 2
		})
		if keys != 1 {
			return "", gjson.Result{}, fmt.Errorf("%w: expected exactly one variant", ErrMalformedFrame)
		}
		return tag, payload, nil
	default:
		return "", gjson.Result{}, fmt.Errorf("%w: expected string or object", ErrMalformedFrame)
	}
}

func unmarshalPayload(tag string, payload gjson.Result, v any) error {
	if !payload.Exists() {
		return fmt.Errorf("%w: %s without payload", ErrMalformedFrame, tag)
	}
	if err := json.Unmarshal([]byte(payload.Raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, tag, err)
	}
	return nil
}

// Games returns the games the server is hosting.
func (c *Client) Games() []GameMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.games)
}

// Maps returns the ids of the available maps in sorted order.
func (c *Client) Maps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.maps))
}

// Map returns the map with the given id.
func (c *Client) Map(id string) (Map, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.maps[id]
	return m, ok
}

// Players returns the players of the joined game.
func (c *Client) Players() []Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.players)
}

// CurrentGame returns the joined game, if any.
func (c *Client) CurrentGame() (GameMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return GameMetadata{}, false
	}
	return *c.current, true
}

// Possession returns this player's index in the joined game.
func (c *Client) Possession() (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.possession, c.hasPossession
}

// GameTime returns the time of the latest galaxy snapshot.
func (c *Client) GameTime() (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.galaxy == nil {
		return 0, false
	}
	t := gjson.GetBytes(c.galaxy, "time")
	if !t.Exists() {
		return 0, false
	}
	return uint32(t.Uint()), true
}

// Game returns the raw game received for the joined game.
func (c *Client) Game() json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.game)
}

// ServerTime returns the last time reported by the server.
func (c *Client) ServerTime() (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverTime, c.hasServerTime
}

// LastError returns the last error message sent by the server.
func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}
