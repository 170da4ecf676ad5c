package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ipg-client/internal/protocol"
)

func TestTracingCodec(t *testing.T) {
	var out bytes.Buffer
	client := protocol.NewClient(nil, nil)
	codec := &tracingCodec{Codec: client, out: &out}

	name, err := codec.Decode([]byte(`{"NewGame":{"game_id":"g1"}}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.EventNewGame, name)

	_, err = codec.Decode([]byte(`"Heartbeat"`))
	require.NoError(t, err)

	_, err = codec.Decode([]byte(`nope`))
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `[NEWGAME] {"NewGame":{"game_id":"g1"}}`, lines[0])
	assert.Equal(t, `[IGNORED] "Heartbeat"`, lines[1])
	assert.Equal(t, `[MALFORMED] nope`, lines[2])

	assert.Len(t, client.Games(), 1, "decoding still reaches the client")
}

func TestTracingCodec_Truncates(t *testing.T) {
	var out bytes.Buffer
	codec := &tracingCodec{Codec: protocol.NewClient(nil, nil), out: &out}

	long := `{"Error":"` + strings.Repeat("x", 200) + `"}`
	_, err := codec.Decode([]byte(long))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), "..."))
	assert.Less(t, out.Len(), len(long))
}
