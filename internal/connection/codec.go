package connection

import "github.com/rickgao/ipg-client/internal/event"

// Codec is the game client that understands the wire protocol. The manager
// creates it once and rebinds it to every replacement transport, so any state
// it holds survives reconnects.
type Codec interface {
	// Decode turns a raw inbound frame into the event to publish. An empty
	// name means the frame produces no event.
	Decode(raw []byte) (event.Name, error)

	// Bind points the codec at a new transport for outbound commands.
	Bind(t Transport)
}

// CodecFactory creates the codec bound to the first transport.
type CodecFactory func(t Transport) Codec

// DecodeErrorHandler receives frames the codec could not decode.
type DecodeErrorHandler func(raw []byte, err error)
