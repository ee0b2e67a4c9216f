package server

import (
	"encoding/json"
	"log"
	"net"

	"github.com/Kavishankarks/1mrc/internal/protocol"
)

// handleConn owns one connection end-to-end: read, classify, dispatch, write
// exactly one response, close. There is no keep-alive.
func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
		s.wg.Done()
	}()

	resp := s.serve(conn)
	if _, err := conn.Write(resp); err != nil {
		// Peer is gone; nothing to deliver the response to.
		log.Printf("error writing response: %v", err)
	}
}

// serve produces the single response for one connection. Every failure path,
// including a panic anywhere in request handling, maps to the fixed
// internal-error response so one bad connection can never take down the
// accept loop or other handlers.
func (s *Server) serve(conn net.Conn) (resp []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic: %v", r)
			resp = protocol.ResponseInternalError
		}
	}()

	buf := make([]byte, protocol.InitialReadSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return protocol.ResponseInternalError
	}
	buf = buf[:n]

	switch protocol.Classify(buf) {
	case protocol.KindStats:
		return s.statsResponse()
	case protocol.KindEvent:
		return s.eventResponse(buf, conn)
	default:
		return protocol.ResponseNotFound
	}
}

// statsResponse frames the current aggregate snapshot as a success response.
func (s *Server) statsResponse() []byte {
	body, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		return protocol.ResponseInternalError
	}
	return protocol.OKResponse(body)
}

// eventResponse completes and decodes one event body, applies it, and
// responds with the freshly updated aggregate. Decode failures respond with
// the internal-error status and must leave the counters untouched; the
// counters are only mutated after both body completion and parse succeed.
func (s *Server) eventResponse(buf []byte, conn net.Conn) []byte {
	body, err := protocol.ReadEventBody(buf, conn)
	if err != nil {
		return protocol.ResponseInternalError
	}
	event, err := protocol.ParseEvent(body)
	if err != nil {
		return protocol.ResponseInternalError
	}

	// Write-then-respond is strictly ordered inside this handler, so the
	// snapshot below always reflects this connection's own event.
	s.store.AddUser(event.UserID)
	s.store.RecordEvent(event.Value)

	return s.statsResponse()
}
