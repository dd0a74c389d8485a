package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasklists/internal/config"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int
	calls    int
	block    chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, m Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) snapshot() ([]Message, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...), f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTPMessage(t *testing.T) {
	t.Parallel()

	m := OTPMessage("a@x.com", "<b>ann</b>", "12345")
	assert.Equal(t, "a@x.com", m.To)
	assert.Equal(t, "Your OTP", m.Subject)
	assert.Contains(t, m.HTML, "<strong>12345</strong>")
	assert.Contains(t, m.HTML, "Hello &lt;b&gt;ann&lt;/b&gt;")
	assert.NotContains(t, m.HTML, "<b>ann</b>")
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	raw := string(buildMessage("noreply@x.com", Message{To: "a@x.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.True(t, strings.HasPrefix(raw, "From: noreply@x.com\r\nTo: a@x.com\r\nSubject: Hi\r\n"))
	assert.Contains(t, raw, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>x</p>"))
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	d := NewDispatcher(sender, quietLogger(), 2, 10, WithRetry(2, time.Millisecond))

	require.NoError(t, d.SendOTP(context.Background(), "a@x.com", "ann", "11111"))
	require.NoError(t, d.Enqueue(Message{To: "b@x.com", Subject: "s"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	sent, _ := sender.snapshot()
	assert.Len(t, sent, 2)

	assert.ErrorIs(t, d.Enqueue(Message{To: "c@x.com"}), ErrClosed)
	assert.NoError(t, d.Close(ctx), "closing twice is safe")
}

func TestDispatcher_Retries(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failures: 2}
	d := NewDispatcher(sender, quietLogger(), 1, 1, WithRetry(3, time.Millisecond))
	require.NoError(t, d.Enqueue(Message{To: "a@x.com"}))
	require.NoError(t, d.Close(context.Background()))

	sent, calls := sender.snapshot()
	assert.Len(t, sent, 1)
	assert.Equal(t, 3, calls)
}

func TestDispatcher_GivesUp(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failures: 10}
	d := NewDispatcher(sender, quietLogger(), 1, 1, WithRetry(1, time.Millisecond))
	require.NoError(t, d.Enqueue(Message{To: "a@x.com"}))
	require.NoError(t, d.Close(context.Background()))

	sent, calls := sender.snapshot()
	assert.Empty(t, sent)
	assert.Equal(t, 2, calls)
}

func TestDispatcher_QueueFull(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{block: make(chan struct{})}
	d := NewDispatcher(sender, quietLogger(), 1, 1, WithRetry(0, time.Millisecond))

	require.NoError(t, d.Enqueue(Message{To: "first@x.com"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond,
		"worker should pick up the first message")

	require.NoError(t, d.Enqueue(Message{To: "second@x.com"}))
	assert.ErrorIs(t, d.Enqueue(Message{To: "third@x.com"}), ErrQueueFull)

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))

	sent, _ := sender.snapshot()
	assert.Len(t, sent, 2)
}

func TestSMTPSender_NotConfigured(t *testing.T) {
	t.Parallel()

	err := NewSMTPSender(configWithoutHost()).Send(context.Background(), Message{To: "a@x.com"})
	assert.Error(t, err)
}

func configWithoutHost() config.SMTPConfig {
	return config.SMTPConfig{Port: 587}
}

func listenLocal(t *testing.T) (net.Listener, config.SMTPConfig) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	port := ln.Addr().(*net.TCPAddr).Port
	return ln, config.SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@x.com"}
}

func TestSMTPSender_HungServerHonoursContext(t *testing.T) {
	t.Parallel()

	ln, cfg := listenLocal(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// never greet
		_, _ = io.Copy(io.Discard, conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewSMTPSender(cfg).Send(ctx, Message{To: "a@x.com", Subject: "hi", HTML: "<p>hi</p>"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPSender_DeliversToPlainServer(t *testing.T) {
	t.Parallel()

	ln, cfg := listenLocal(t)
	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		var body strings.Builder
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "EHLO"):
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(line, "MAIL"), strings.HasPrefix(line, "RCPT"):
				_ = tp.PrintfLine("250 OK")
			case line == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				data, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				body.WriteString(strings.Join(data, "\n"))
				_ = tp.PrintfLine("250 queued")
			case line == "QUIT":
				_ = tp.PrintfLine("221 bye")
				received <- body.String()
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := NewSMTPSender(cfg).Send(ctx, Message{To: "a@x.com", Subject: "Your code", HTML: "<p>12345</p>"})
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Contains(t, got, "Subject: Your code")
		assert.Contains(t, got, "<p>12345</p>")
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw QUIT")
	}
}
