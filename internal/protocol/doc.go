// Package protocol implements the game codec client.
//
// Frames are JSON values in an externally tagged form: unit variants are a
// bare string ("StartGame") and all others are a single-key object
// ({"GameList":{"games":[...]}}). The client decodes inbound frames into
// event names for the connection manager, keeps the lobby and game state the
// frames describe, and encodes outbound commands.
package protocol
