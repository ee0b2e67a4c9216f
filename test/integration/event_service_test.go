package integration

import (
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Kavishankarks/1mrc/internal/client"
)

// ServiceUnderTest wraps a server process built from source and started on an
// ephemeral port.
type ServiceUnderTest struct {
	t    *testing.T
	cmd  *exec.Cmd
	addr string
}

// StartService builds the server binary and launches it, waiting until the
// listener answers.
func StartService(t *testing.T) *ServiceUnderTest {
	t.Helper()

	bin := filepath.Join(t.TempDir(), "server")
	build := exec.Command("go", "build", "-o", bin, "../../cmd/server")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build server: %v\n%s", err, out)
	}

	port := freePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	cmd := exec.Command(bin, "--port", fmt.Sprintf("%d", port))
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	s := &ServiceUnderTest{t: t, cmd: cmd, addr: addr}
	t.Cleanup(s.Stop)

	if err := s.waitReady(5 * time.Second); err != nil {
		t.Fatalf("Server never became ready: %v", err)
	}
	return s
}

// Stop terminates the server with SIGTERM, falling back to SIGKILL.
func (s *ServiceUnderTest) Stop() {
	if s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.t.Log("Server ignored SIGTERM, killing")
		_ = s.cmd.Process.Kill()
		<-done
	}
}

// waitReady polls the listener until a connection is accepted.
func (s *ServiceUnderTest) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", s.addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("no listener on %s after %s", s.addr, timeout)
}

// freePort asks the kernel for an unused port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestEventServiceEndToEnd exercises the built binary over real TCP
func TestEventServiceEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := StartService(t)
	c := client.New(svc.addr, 5*time.Second)

	t.Run("fresh service reports zeros", func(t *testing.T) {
		stats, err := c.GetStats()
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}
		if stats.TotalRequests != 0 || stats.UniqueUsers != 0 || stats.Sum != 0 || stats.Avg != 0 {
			t.Errorf("Expected all-zero stats, got %+v", stats)
		}
	})

	t.Run("writes accumulate", func(t *testing.T) {
		if _, err := c.PostEvent("alice", 10); err != nil {
			t.Fatalf("First write failed: %v", err)
		}
		if _, err := c.PostEvent("alice", 5); err != nil {
			t.Fatalf("Second write failed: %v", err)
		}
		stats, err := c.PostEvent("bob", 1)
		if err != nil {
			t.Fatalf("Third write failed: %v", err)
		}

		if stats.TotalRequests != 3 {
			t.Errorf("Expected 3 total requests, got %d", stats.TotalRequests)
		}
		if stats.UniqueUsers != 2 {
			t.Errorf("Expected 2 unique users, got %d", stats.UniqueUsers)
		}
		if stats.Sum != 16 {
			t.Errorf("Expected sum 16, got %f", stats.Sum)
		}
	})

	t.Run("malformed write leaves state alone", func(t *testing.T) {
		before, err := c.GetStats()
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}

		resp, err := c.Do([]byte("POST /event HTTP/1.1\r\nContent-Length: 7\r\n\r\nnotjson"))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != 500 {
			t.Errorf("Expected 500 for malformed body, got %d", resp.StatusCode)
		}

		after, err := c.GetStats()
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}
		if after.TotalRequests != before.TotalRequests {
			t.Errorf("Malformed write changed totalRequests from %d to %d",
				before.TotalRequests, after.TotalRequests)
		}
	})

	t.Run("unknown route gets 404", func(t *testing.T) {
		resp, err := c.Do([]byte("GET /metrics HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != 404 {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
		if string(resp.Body) != "Not Found" {
			t.Errorf("Expected body 'Not Found', got %q", resp.Body)
		}
	})

	t.Run("concurrent burst loses nothing", func(t *testing.T) {
		before, err := c.GetStats()
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}

		const (
			workers = 20
			perGoro = 10
		)
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				wc := client.New(svc.addr, 5*time.Second)
				for j := 0; j < perGoro; j++ {
					if _, err := wc.PostEvent(fmt.Sprintf("burst-user-%d", id), 1); err != nil {
						errs <- err
						return
					}
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("Concurrent write failed: %v", err)
		}

		after, err := c.GetStats()
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}
		if got := after.TotalRequests - before.TotalRequests; got != workers*perGoro {
			t.Errorf("Expected %d new requests, got %d", workers*perGoro, got)
		}
		if got := after.UniqueUsers - before.UniqueUsers; got != workers {
			t.Errorf("Expected %d new unique users, got %d", workers, got)
		}
	})
}
