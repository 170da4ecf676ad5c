package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/event"
)

// tracingCodec prints every inbound frame before handing it on.
type tracingCodec struct {
	connection.Codec
	out  io.Writer
	full bool
}

func (c *tracingCodec) Decode(raw []byte) (event.Name, error) {
	name, err := c.Codec.Decode(raw)

	label := strings.ToUpper(string(name))
	switch {
	case err != nil:
		label = "MALFORMED"
	case name == "":
		label = "IGNORED"
	}

	frame := string(raw)
	if !c.full && len(frame) > 120 {
		frame = frame[:120] + "..."
	}
	fmt.Fprintf(c.out, "[%s] %s\n", label, frame)

	return name, err
}
