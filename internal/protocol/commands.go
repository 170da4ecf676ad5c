package protocol

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/rickgao/ipg-client/internal/connection"
)

var (
	startGameFrame = []byte(`"StartGame"`)
	exitGameFrame  = []byte(`"ExitGame"`)
)

// SetName sets the player's display name.
func (c *Client) SetName(name string) error {
	frame, err := sjson.Set("", "SetName.name", name)
	if err != nil {
		return fmt.Errorf("encode SetName: %w", err)
	}
	return c.send([]byte(frame))
}

// CreateGame asks the server to host a new game on the given map.
func (c *Client) CreateGame(mapID string) error {
	frame, err := sjson.Set("", "CreateGame.map_id", mapID)
	if err != nil {
		return fmt.Errorf("encode CreateGame: %w", err)
	}
	return c.send([]byte(frame))
}

// EnterGame joins a game. The game becomes current once the request is sent.
func (c *Client) EnterGame(game GameMetadata) error {
	frame, err := sjson.Set("", "EnterGame", game.GameID)
	if err != nil {
		return fmt.Errorf("encode EnterGame: %w", err)
	}
	if err := c.send([]byte(frame)); err != nil {
		return err
	}

	c.mu.Lock()
	c.current = &game
	c.mu.Unlock()
	return nil
}

// StartGame starts the joined game.
func (c *Client) StartGame() error {
	return c.send(startGameFrame)
}

// ExitGame leaves the joined game and forgets its state.
func (c *Client) ExitGame() error {
	if err := c.send(exitGameFrame); err != nil {
		return err
	}

	c.mu.Lock()
	c.current = nil
	c.galaxy = nil
	c.game = nil
	c.players = nil
	c.hasPossession = false
	c.mu.Unlock()
	return nil
}

// MakeMove sends a fleet from one planet to another.
func (c *Client) MakeMove(from, to uint16) error {
	frame, err := sjson.Set("", "GameMove.to", to)
	if err != nil {
		return fmt.Errorf("encode GameMove: %w", err)
	}
	frame, err = sjson.Set(frame, "GameMove.from", from)
	if err != nil {
		return fmt.Errorf("encode GameMove: %w", err)
	}
	return c.send([]byte(frame))
}

// RequestTime asks the server for its clock, used to estimate the offset.
func (c *Client) RequestTime() error {
	frame, err := sjson.Set("", "Time", 0)
	if err != nil {
		return fmt.Errorf("encode Time: %w", err)
	}
	return c.send([]byte(frame))
}

func (c *Client) send(frame []byte) error {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()

	if t == nil {
		return connection.ErrNotConnected
	}
	return t.Send(frame)
}
