package protocol

import "strconv"

// Fixed error responses, complete with framing. The bodies are exactly
// "Not Found" (9 bytes) and "Internal Server Error" (21 bytes).
var (
	ResponseNotFound = []byte("HTTP/1.1 404 Not Found\r\nConnection: close\r\nContent-Length: 9\r\n\r\nNot Found")

	ResponseInternalError = []byte("HTTP/1.1 500 Internal Server Error\r\nConnection: close\r\nContent-Length: 21\r\n\r\nInternal Server Error")
)

var okPrefix = []byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nConnection: close\r\nContent-Length: ")

// OKResponse frames a success body: status line, JSON content type,
// Connection: close, and a Content-Length matching the body exactly.
func OKResponse(body []byte) []byte {
	resp := make([]byte, 0, len(okPrefix)+len(body)+24)
	resp = append(resp, okPrefix...)
	resp = strconv.AppendInt(resp, int64(len(body)), 10)
	resp = append(resp, '\r', '\n', '\r', '\n')
	resp = append(resp, body...)
	return resp
}
