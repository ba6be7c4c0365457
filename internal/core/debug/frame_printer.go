package debug

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"royale/internal/wire"
)

// frameDumper renders decoded records without pointer addresses so the
// output is stable across runs.
var frameDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

type PrintFrameParams struct {
	Writer *bufio.Writer
	// ClientMessage is true for frames sent by a player, false for
	// frames sent by the server.
	ClientMessage bool
	Message       *wire.Message
	// TruncateThreshold caps the printed body length; 0 prints it all.
	TruncateThreshold int
}

// PrintFrame writes a human-readable rendering of one decoded message:
// the direction, the action and card records, and the status text body.
func PrintFrame(params PrintFrameParams) {
	direction := "server->client"
	if params.ClientMessage {
		direction = "client->server"
	}

	body := params.Message.Body()
	truncated := false
	if params.TruncateThreshold > 0 && len(body) > params.TruncateThreshold {
		body = body[:params.TruncateThreshold]
		truncated = true
	}

	fmt.Fprintf(params.Writer, "[%s] %d byte body\n", direction, len(params.Message.Body()))
	fmt.Fprint(params.Writer, frameDumper.Sdump(params.Message.Action))
	fmt.Fprint(params.Writer, frameDumper.Sdump(params.Message.Card))
	if len(body) > 0 {
		fmt.Fprintf(params.Writer, "body: %q", strings.ToValidUTF8(string(body), "."))
		if truncated {
			fmt.Fprint(params.Writer, " (truncated)")
		}
		fmt.Fprintln(params.Writer)
	}

	params.Writer.Flush()
}
