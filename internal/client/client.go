// Package client implements a one-shot client for the service's wire
// protocol: one TCP connection per request, a single response, no keep-alive.
// It exists for the load generator and for end-to-end tests; the service
// itself never dials out.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/Kavishankarks/1mrc/internal/protocol"
	"github.com/Kavishankarks/1mrc/internal/store"
)

const defaultTimeout = 5 * time.Second

// Client issues requests against one service address.
type Client struct {
	addr    string
	timeout time.Duration
}

// New creates a client for the service at addr (host:port).
func New(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Response is the raw outcome of one request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do writes one raw request payload on a fresh connection and reads the
// single response until the server closes. Exposed for tests that need to
// send deliberately broken requests.
func (c *Client) Do(payload []byte) (Response, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return Response{}, fmt.Errorf("client: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return Response{}, fmt.Errorf("client: set deadline: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return Response{}, fmt.Errorf("client: write: %w", err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return Response{}, fmt.Errorf("client: read response: %w", err)
	}
	return parseResponse(raw)
}

// GetStats fetches the current aggregate statistics.
func (c *Client) GetStats() (store.Stats, error) {
	resp, err := c.Do([]byte("GET /stats HTTP/1.1\r\nHost: " + c.addr + "\r\nConnection: close\r\n\r\n"))
	if err != nil {
		return store.Stats{}, err
	}
	return decodeStats(resp)
}

// PostEvent submits one event and returns the aggregate statistics the
// service reported after applying it.
func (c *Client) PostEvent(userID string, value float64) (store.Stats, error) {
	body, err := json.Marshal(protocol.Event{UserID: userID, Value: value})
	if err != nil {
		return store.Stats{}, fmt.Errorf("client: encode event: %w", err)
	}

	var req bytes.Buffer
	req.WriteString("POST /event HTTP/1.1\r\nHost: ")
	req.WriteString(c.addr)
	req.WriteString("\r\nContent-Type: application/json\r\nContent-Length: ")
	req.WriteString(strconv.Itoa(len(body)))
	req.WriteString("\r\nConnection: close\r\n\r\n")
	req.Write(body)

	resp, err := c.Do(req.Bytes())
	if err != nil {
		return store.Stats{}, err
	}
	return decodeStats(resp)
}

// parseResponse splits a raw response into status code and body.
func parseResponse(raw []byte) (Response, error) {
	head, body, found := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !found {
		return Response{}, fmt.Errorf("client: unterminated response header: %q", raw)
	}

	statusLine, _, _ := bytes.Cut(head, []byte("\r\n"))
	fields := bytes.Fields(statusLine)
	if len(fields) < 2 {
		return Response{}, fmt.Errorf("client: bad status line: %q", statusLine)
	}
	code, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return Response{}, fmt.Errorf("client: bad status code in %q: %w", statusLine, err)
	}
	return Response{StatusCode: code, Body: body}, nil
}

func decodeStats(resp Response) (store.Stats, error) {
	if resp.StatusCode != 200 {
		return store.Stats{}, fmt.Errorf("client: http %d: %s", resp.StatusCode, resp.Body)
	}
	var stats store.Stats
	if err := json.Unmarshal(resp.Body, &stats); err != nil {
		return store.Stats{}, fmt.Errorf("client: decode stats: %w", err)
	}
	return stats, nil
}
