package socks

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "ipv4", address: "127.0.0.1:9050", wantErr: false},
		{name: "hostname", address: "localhost:1080", wantErr: false},
		{name: "ipv6", address: "[::1]:9050", wantErr: false},
		{name: "empty", address: "", wantErr: true},
		{name: "no port", address: "127.0.0.1", wantErr: true},
		{name: "empty host", address: ":9050", wantErr: true},
		{name: "port zero", address: "127.0.0.1:0", wantErr: true},
		{name: "port too large", address: "127.0.0.1:70000", wantErr: true},
		{name: "port not numeric", address: "127.0.0.1:tor", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewClient(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProxyAddress) {
					t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Address() != tt.address {
				t.Errorf("expected address %q, got %q", tt.address, c.Address())
			}
			if c.URL() != "socks5://"+tt.address {
				t.Errorf("unexpected URL %q", c.URL())
			}
		})
	}
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  ProxyStatus
		str     string
		wantErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			t.Parallel()
			if tt.status.String() != tt.str {
				t.Errorf("expected %q, got %q", tt.str, tt.status.String())
			}
			if !errors.Is(tt.status.Err(), tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, tt.status.Err())
			}
		})
	}

	if ProxyStatus(99).String() != "unknown" || ProxyStatus(99).Err() == nil {
		t.Error("expected unknown status to be reported")
	}
}

// serveOnce accepts one connection and hands it to handle.
func serveOnce(t *testing.T, handle func(net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test listener
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

func TestCheckConnection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		handle func(net.Conn)
		want   ProxyStatus
	}{
		{
			name: "http server",
			handle: func(c net.Conn) {
				_, _ = io.ReadFull(c, make([]byte, 3))
				_, _ = c.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
			},
			want: ProxyStatusWrongType,
		},
		{
			name: "auth required",
			handle: func(c net.Conn) {
				_, _ = io.ReadFull(c, make([]byte, 3))
				_, _ = c.Write([]byte{0x05, 0xFF})
			},
			want: ProxyStatusWrongType,
		},
		{
			name: "wrong version in reply",
			handle: func(c net.Conn) {
				_, _ = io.ReadFull(c, make([]byte, 3))
				_, _ = c.Write([]byte{0x05, 0x00})
				_, _ = c.Read(make([]byte, 256))
				_, _ = c.Write([]byte{0x04, 0x00, 0x00, 0x01})
			},
			want: ProxyStatusWrongType,
		},
		{
			name: "working proxy refusing the probe host",
			handle: func(c net.Conn) {
				_, _ = io.ReadFull(c, make([]byte, 3))
				_, _ = c.Write([]byte{0x05, 0x00})
				_, _ = c.Read(make([]byte, 256))
				_, _ = c.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
			},
			want: ProxyStatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewClient(serveOnce(t, tt.handle))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := c.CheckConnection(t.Context()); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test listener
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		c, err := NewClient(addr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := c.CheckConnection(t.Context()); got != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", got)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient("127.0.0.1:59998")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		got := c.CheckConnection(ctx)
		if got != ProxyStatusCannotConnect && got != ProxyStatusTimeout {
			t.Errorf("expected CannotConnect or Timeout, got %v", got)
		}
	})
}

// startSOCKS5 runs a minimal no-auth SOCKS5 proxy supporting CONNECT to
// IPv4 and domain addresses.
func startSOCKS5(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test listener
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go proxyConn(conn)
		}
	}()
	return ln.Addr().String()
}

func proxyConn(c net.Conn) {
	defer c.Close()

	hdr := make([]byte, 2)
	if _, err := io.ReadFull(c, hdr); err != nil {
		return
	}
	if _, err := io.ReadFull(c, make([]byte, hdr[1])); err != nil {
		return
	}
	if _, err := c.Write([]byte{0x05, 0x00}); err != nil {
		return
	}

	req := make([]byte, 4)
	if _, err := io.ReadFull(c, req); err != nil {
		return
	}
	var host string
	switch req[3] {
	case 0x01:
		ip := make([]byte, 4)
		if _, err := io.ReadFull(c, ip); err != nil {
			return
		}
		host = net.IP(ip).String()
	case 0x03:
		n := make([]byte, 1)
		if _, err := io.ReadFull(c, n); err != nil {
			return
		}
		name := make([]byte, n[0])
		if _, err := io.ReadFull(c, name); err != nil {
			return
		}
		host = string(name)
	default:
		return
	}
	portBuf := make([]byte, 2)
	if _, err := io.ReadFull(c, portBuf); err != nil {
		return
	}
	target := net.JoinHostPort(host, strconv.Itoa(int(binary.BigEndian.Uint16(portBuf))))

	upstream, err := net.Dial("tcp", target) //nolint:noctx // test proxy
	if err != nil {
		_, _ = c.Write([]byte{0x05, 0x05, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		return
	}
	defer upstream.Close()
	if _, err := c.Write([]byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}); err != nil {
		return
	}

	go func() { _, _ = io.Copy(upstream, c) }()
	_, _ = io.Copy(c, upstream)
}

func TestTransportThroughProxy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "via proxy")
	}))
	defer srv.Close()

	c, err := NewClient(startSOCKS5(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.CheckConnection(t.Context()); got != ProxyStatusOK {
		t.Fatalf("expected working proxy, got %v", got)
	}

	hc := &http.Client{Transport: c.Transport()}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("request through proxy failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "via proxy" {
		t.Errorf("expected body from upstream, got %q", body)
	}
}

func TestTorNotRunning(t *testing.T) {
	t.Parallel()

	var tor *Tor
	if _, err := tor.Client(); !errors.Is(err, ErrTorNotRunning) {
		t.Errorf("expected ErrTorNotRunning, got %v", err)
	}
	if err := tor.Stop(); err != nil {
		t.Errorf("expected nil-safe Stop, got %v", err)
	}

	stopped := &Tor{}
	if _, err := stopped.Client(); !errors.Is(err, ErrTorNotRunning) {
		t.Errorf("expected ErrTorNotRunning, got %v", err)
	}
	if err := stopped.Stop(); err != nil {
		t.Errorf("expected Stop on stopped daemon to succeed, got %v", err)
	}
}
