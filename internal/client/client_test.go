package client

import (
	"testing"
)

// TestParseResponse tests raw response splitting
func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode int
		wantBody string
		wantErr  bool
	}{
		{
			name:     "success with body",
			raw:      "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 2\r\n\r\n{}",
			wantCode: 200,
			wantBody: "{}",
		},
		{
			name:     "not found",
			raw:      "HTTP/1.1 404 Not Found\r\nConnection: close\r\nContent-Length: 9\r\n\r\nNot Found",
			wantCode: 404,
			wantBody: "Not Found",
		},
		{
			name:    "no header terminator",
			raw:     "HTTP/1.1 200 OK\r\n",
			wantErr: true,
		},
		{
			name:    "garbage status line",
			raw:     "nonsense\r\n\r\nbody",
			wantErr: true,
		},
		{
			name:    "non-numeric status code",
			raw:     "HTTP/1.1 OK fine\r\n\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseResponse([]byte(tt.raw))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got response %+v", resp)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, resp.StatusCode)
			}
			if string(resp.Body) != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, resp.Body)
			}
		})
	}
}
