package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/core"
)

var errStopped = errors.New("message source stopped")

// SMTPSource accepts mail over SMTP and reports each message as a newly
// added element. Elements received this way are never removed.
type SMTPSource struct {
	logger          *zap.Logger
	listenAddr      string
	maxMessageBytes int64

	server   *smtp.Server
	listener net.Listener
	out      chan core.Observation
	done     chan struct{}

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
	stopOnce sync.Once
}

// NewSMTPSource creates an SMTP intake listening on listenAddr
func NewSMTPSource(logger *zap.Logger, listenAddr string, maxMessageBytes int64) *SMTPSource {
	if maxMessageBytes <= 0 {
		maxMessageBytes = 10 * 1024 * 1024
	}
	return &SMTPSource{
		logger:          logger,
		listenAddr:      listenAddr,
		maxMessageBytes: maxMessageBytes,
		out:             make(chan core.Observation, 64),
		done:            make(chan struct{}),
	}
}

// Start listens and begins accepting messages
func (s *SMTPSource) Start(ctx context.Context) (<-chan core.Observation, error) {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	s.listener = ln

	s.server = smtp.NewServer(&smtpBackend{source: s})
	s.server.Addr = ln.Addr().String()
	s.server.Domain = "localhost"
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = s.maxMessageBytes
	s.server.MaxRecipients = 50

	s.logger.Info("SMTP intake starting", zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	return s.out, nil
}

// Addr returns the address the intake is bound to, once started
func (s *SMTPSource) Addr() string {
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// Stop closes the server and the observation channel
func (s *SMTPSource) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		close(s.done)
		if s.server != nil {
			err = s.server.Close()
		}
		s.inflight.Wait()
		close(s.out)
		s.logger.Info("SMTP intake stopped")
	})
	return err
}

func (s *SMTPSource) emit(obs core.Observation) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return errStopped
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	select {
	case s.out <- obs:
		return nil
	case <-s.done:
		return errStopped
	}
}

type smtpBackend struct {
	source *SMTPSource
}

func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{source: b.source}, nil
}

type smtpSession struct {
	source *SMTPSource
	sender string
}

func (s *smtpSession) Reset() {
	s.sender = ""
}

// AuthPlain is refused; the intake is meant for a local MTA
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(_ string, _ *smtp.RcptOptions) error {
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.source.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := ParseMessage(bytes.NewReader(raw))
	if err != nil {
		s.source.logger.Warn("Failed to parse message", zap.String("sender", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}
	if msg.From == "" {
		msg.From = s.sender
	}

	obs := core.Observation{
		Kind:      core.ObservationAdded,
		ElementID: ulid.Make().String(),
		Message:   msg,
	}
	if err := s.source.emit(obs); err != nil {
		return &smtp.SMTPError{
			Code:         421,
			EnhancedCode: smtp.EnhancedCode{4, 3, 2},
			Message:      "Service shutting down",
		}
	}

	s.source.logger.Debug("Accepted message",
		zap.String("element_id", obs.ElementID),
		zap.String("sender", s.sender))
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
