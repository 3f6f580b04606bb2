package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"custodian/internal/platform/config"
	"custodian/pkg/platform/circuit"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubNotifier struct {
	result bool
	panics bool
	calls  int
}

func (s *stubNotifier) Send(context.Context, Message) bool {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.result
}

func TestSafeSendRecoversPanic(t *testing.T) {
	n := &stubNotifier{panics: true}
	assert.False(t, SafeSend(context.Background(), n, Message{Subject: "x"}, discard))
	assert.Equal(t, 1, n.calls)
}

func TestLogNotifierReportsDelivered(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))
	assert.True(t, n.Send(context.Background(), Message{Subject: "Account Inactivity Warning", Recipients: []string{"ops@acme.test"}}))
	assert.Contains(t, buf.String(), "Account Inactivity Warning")
}

func TestFanout(t *testing.T) {
	t.Run("failed primary is not mirrored", func(t *testing.T) {
		primary := &stubNotifier{result: false}
		mirror := &stubNotifier{result: true}
		assert.False(t, NewFanout(primary, discard, mirror).Send(context.Background(), Message{}))
		assert.Zero(t, mirror.calls)
	})

	t.Run("delivered primary is mirrored", func(t *testing.T) {
		primary := &stubNotifier{result: true}
		mirror := &stubNotifier{result: true}
		assert.True(t, NewFanout(primary, discard, mirror).Send(context.Background(), Message{}))
		assert.Equal(t, 1, mirror.calls)
	})

	t.Run("mirror failure does not fail delivery", func(t *testing.T) {
		primary := &stubNotifier{result: true}
		mirror := &stubNotifier{panics: true}
		assert.True(t, NewFanout(primary, discard, mirror).Send(context.Background(), Message{}))
	})
}

type SMTPSuite struct {
	suite.Suite
	mu    sync.Mutex
	sent  [][]byte
	to    [][]string
	err   error
	clock time.Time
}

func TestSMTPSuite(t *testing.T) {
	suite.Run(t, new(SMTPSuite))
}

func (s *SMTPSuite) SetupTest() {
	s.sent = nil
	s.to = nil
	s.err = nil
	s.clock = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
}

func (s *SMTPSuite) fakeSend(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Equal("smtp.example.com:587", addr)
	s.Equal("noreply@example.com", from)
	s.sent = append(s.sent, msg)
	s.to = append(s.to, to)
	return s.err
}

func (s *SMTPSuite) notifier(opts ...SMTPOption) *SMTP {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com", Timeout: time.Second}
	opts = append([]SMTPOption{withSendMail(s.fakeSend), WithSMTPLogger(discard)}, opts...)
	n := NewSMTP(cfg, opts...)
	n.now = func() time.Time { return s.clock }
	return n
}

func (s *SMTPSuite) TestComposesPlainTextMessage() {
	ok := s.notifier().Send(context.Background(), Message{
		Subject:    "Account Inactivity Warning - Acme",
		Body:       "Dear acme,\nplease log in.",
		Recipients: []string{"owner@acme.test"},
	})

	s.True(ok)
	s.Require().Len(s.sent, 1)
	raw := string(s.sent[0])
	s.Contains(raw, "To: owner@acme.test\r\n")
	s.Contains(raw, "Subject: Account Inactivity Warning - Acme\r\n")
	s.Contains(raw, "Dear acme,\r\nplease log in.")
	s.Equal([]string{"owner@acme.test"}, s.to[0])
}

func (s *SMTPSuite) TestRelayErrorReturnsFalse() {
	s.err = errors.New("550 mailbox unavailable")
	s.False(s.notifier().Send(context.Background(), Message{Subject: "x", Recipients: []string{"a@b.test"}}))
}

func (s *SMTPSuite) TestNoRecipientsSkipsRelay() {
	s.False(s.notifier().Send(context.Background(), Message{Subject: "x"}))
	s.Empty(s.sent)
}

func (s *SMTPSuite) TestOpenCircuitShortCircuits() {
	s.err = errors.New("connection refused")
	n := s.notifier(WithBreaker(circuit.New("smtp", circuit.WithFailureThreshold(2), circuit.WithCoolDown(time.Hour))))
	msg := Message{Subject: "x", Recipients: []string{"a@b.test"}}

	s.False(n.Send(context.Background(), msg))
	s.False(n.Send(context.Background(), msg))
	s.False(n.Send(context.Background(), msg))

	s.Len(s.sent, 2, "third send must not reach the relay")
}

func (s *SMTPSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.False(s.notifier().Send(ctx, Message{Subject: "x", Recipients: []string{"a@b.test"}}))
	s.Empty(s.sent)
}

type fakeSlack struct {
	channel string
	err     error
	calls   int
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.channel = channelID
	return channelID, "1700000000.000100", f.err
}

func TestSlackMirror(t *testing.T) {
	api := &fakeSlack{}
	n := &Slack{api: api, channelID: "C0LIFECYCLE", logger: discard}

	require.True(t, n.Send(context.Background(), Message{Subject: "Account Deleted", Recipients: []string{"a@b.test"}}))
	assert.Equal(t, "C0LIFECYCLE", api.channel)

	api.err = errors.New("channel_not_found")
	assert.False(t, n.Send(context.Background(), Message{Subject: "x"}))
	assert.Equal(t, 2, api.calls)
}

func TestSubjectEncoding(t *testing.T) {
	n := NewSMTP(config.SMTPConfig{Host: "h", Port: 25, From: "f@h"})
	raw := string(n.compose(Message{Subject: "Précision faible", Recipients: []string{"x@y"}}))
	assert.True(t, strings.Contains(raw, "Subject: =?utf-8?q?"))
}
