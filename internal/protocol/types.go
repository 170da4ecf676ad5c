package protocol

import (
	"errors"

	"github.com/rickgao/ipg-client/internal/event"
)

// Errors
var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrNoGameJoined   = errors.New("game state received with no game joined")
)

// Event names published for decoded frames.
const (
	EventNewGame     event.Name = "NewGame"
	EventGameList    event.Name = "GameList"
	EventGameState   event.Name = "GameState"
	EventGame        event.Name = "Game"
	EventMapList     event.Name = "MapList"
	EventGamePlayers event.Name = "GamePlayers"
	EventTime        event.Name = "Time"
	EventError       event.Name = "Error"
)

// EventPossession is spelled correctly. Older clients published "Possesion";
// subscriptions ported from them must use this name. Frames tagged with either
// spelling decode to it.
const EventPossession event.Name = "Possession"

// GameMetadata identifies a game hosted by the server.
type GameMetadata struct {
	GameID string `json:"game_id"`
}

// Player is a participant in a game.
type Player struct {
	Name string `json:"name"`
}

// MapSize is the extent of a map.
type MapSize struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// MapPlanet is a planet as laid out in a map. Possession lists the owning
// player index for each supported player count.
type MapPlanet struct {
	X          uint32   `json:"x"`
	Y          uint32   `json:"y"`
	StartValue uint32   `json:"start_value"`
	Radius     uint32   `json:"radius"`
	Possession []uint32 `json:"possession"`
	Multiplier float32  `json:"multiplier"`
}

// Map is a playable map offered by the server.
type Map struct {
	Size    MapSize     `json:"size"`
	Name    string      `json:"name"`
	Planets []MapPlanet `json:"planets"`
}
