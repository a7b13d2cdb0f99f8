package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// fakeSMTP is a minimal ESMTP server that records one transaction.
type fakeSMTP struct {
	ln         net.Listener
	rejectAuth bool

	mu   sync.Mutex
	auth string
	from string
	rcpt string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T, rejectAuth bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSMTP{ln: ln, rejectAuth: rejectAuth, done: make(chan struct{})}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeSMTP) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer close(f.done)
	defer conn.Close()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 fake ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			tp.PrintfLine("250-fake")
			tp.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			f.mu.Lock()
			f.auth = strings.TrimSpace(line[len("AUTH PLAIN"):])
			f.mu.Unlock()
			if f.rejectAuth {
				tp.PrintfLine("535 5.7.8 bad credentials")
			} else {
				tp.PrintfLine("235 2.7.0 accepted")
			}
		case line == "*":
			tp.PrintfLine("501 cancelled")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			f.mu.Lock()
			f.from = firstField(line[len("MAIL FROM:"):])
			f.mu.Unlock()
			tp.PrintfLine("250 ok")
		case strings.HasPrefix(upper, "RCPT TO:"):
			f.mu.Lock()
			f.rcpt = firstField(line[len("RCPT TO:"):])
			f.mu.Unlock()
			tp.PrintfLine("250 ok")
		case upper == "DATA":
			tp.PrintfLine("354 end with .")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = strings.Join(lines, "\n")
			f.mu.Unlock()
			tp.PrintfLine("250 queued")
		case upper == "NOOP", upper == "RSET":
			tp.PrintfLine("250 ok")
		case upper == "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 unknown")
		}
	}
}

// firstField drops ESMTP parameters after the address.
func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func testConfig(port int) SMTPConfig {
	return SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Sender:   " watcher@example.com ",
		Password: "app-password\n",
		Receiver: "me@example.com",
		Timeout:  5 * time.Second,
	}
}

func TestSMTP_Send(t *testing.T) {
	srv := startFakeSMTP(t, false)
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	n := NewSMTP(testConfig(srv.port()), WithClock(func() time.Time { return fixed }))

	msg := availability.DefaultTemplates().Unavailable
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-srv.done

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.from != "<watcher@example.com>" {
		t.Errorf("MAIL FROM = %q", srv.from)
	}
	if srv.rcpt != "<me@example.com>" {
		t.Errorf("RCPT TO = %q", srv.rcpt)
	}
	raw, err := base64.StdEncoding.DecodeString(srv.auth)
	if err != nil {
		t.Fatalf("auth not base64: %v", err)
	}
	if string(raw) != "\x00watcher@example.com\x00app-password" {
		t.Errorf("auth = %q, credentials not trimmed", raw)
	}
	for _, want := range []string{
		"From: <watcher@example.com>",
		"To: <me@example.com>",
		"Subject: Boba Unavailable Alert",
		"Date: Wed, 14 Oct 2026 09:30:00 +0000",
		"content-type: text/plain; charset=utf-8",
		"content-transfer-encoding: 8bit",
		msg.Body,
	} {
		if !strings.Contains(strings.ToLower(srv.data), strings.ToLower(want)) {
			t.Errorf("message missing %q:\n%s", want, srv.data)
		}
	}
}

func TestSMTP_AuthRejected(t *testing.T) {
	srv := startFakeSMTP(t, true)
	n := NewSMTP(testConfig(srv.port()))

	err := n.Send(context.Background(), availability.DefaultTemplates().Available)
	var se *SendError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SendError", err)
	}
	if se.Stage != "auth" {
		t.Fatalf("stage = %q, want auth", se.Stage)
	}
}

func TestSMTP_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	n := NewSMTP(testConfig(port))
	err = n.Send(context.Background(), availability.DefaultTemplates().Available)
	var se *SendError
	if !errors.As(err, &se) || se.Stage != "dial" {
		t.Fatalf("err = %v, want dial SendError", err)
	}
}

func TestSMTP_NoCredentials(t *testing.T) {
	cfg := testConfig(1)
	cfg.Password = "   "
	n := NewSMTP(cfg)
	if n.Enabled() {
		t.Fatal("blank password should disable sending")
	}
	if err := n.Send(context.Background(), availability.Message{}); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}
