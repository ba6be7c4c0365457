package main

import (
	"bufio"
	"encoding/binary"

	"github.com/google/gopacket"

	"royale/internal/core/debug"
	"royale/internal/wire"
)

// sniffer reassembles the two directions of a table connection and
// prints each complete frame. The protocol is plaintext, so decoding is
// just a matter of finding message boundaries in the byte stream.
type sniffer struct {
	Writer     *bufio.Writer
	ServerPort uint16

	// One reassembly buffer per direction; frames can straddle TCP
	// segment boundaries.
	clientBuffer []byte
	serverBuffer []byte
}

func (s *sniffer) startReading(packetChan chan gopacket.Packet) {
	for packet := range packetChan {
		transport := packet.TransportLayer()
		app := packet.ApplicationLayer()
		if transport == nil || app == nil {
			continue
		}

		flow := transport.TransportFlow()
		dstPort := binary.BigEndian.Uint16(flow.Dst().Raw())

		clientMessage := dstPort == s.ServerPort
		s.handleData(clientMessage, app.Payload())
	}
}

// handleData appends one TCP segment's payload to the directional
// buffer and emits every complete frame it now contains.
func (s *sniffer) handleData(clientMessage bool, data []byte) {
	buffer := &s.serverBuffer
	if clientMessage {
		buffer = &s.clientBuffer
	}
	*buffer = append(*buffer, data...)

	for {
		if len(*buffer) < wire.FrameSize {
			return
		}

		msg, bodyLen, err := wire.DecodeFrame((*buffer)[:wire.FrameSize])
		if err != nil {
			// The capture joined mid-stream or the peer is misbehaving;
			// either way the buffer cannot be realigned, so start over.
			*buffer = (*buffer)[:0]
			return
		}
		if len(*buffer) < wire.FrameSize+bodyLen {
			return
		}

		if bodyLen > 0 {
			msg.SetBody((*buffer)[wire.FrameSize : wire.FrameSize+bodyLen])
		}
		*buffer = (*buffer)[wire.FrameSize+bodyLen:]

		debug.PrintFrame(debug.PrintFrameParams{
			Writer:        s.Writer,
			ClientMessage: clientMessage,
			Message:       msg,
		})
	}
}
