package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"taskFlow/internal/logger"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Configured() bool { return true }

func (s *SMTPSender) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// dial открывает соединение и проходит аутентификацию. UseTLS означает неявный TLS (порт 465),
// иначе соединение повышается через STARTTLS, если сервер его поддерживает.
func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	dialer := &net.Dialer{}
	var conn net.Conn
	var err error
	if s.cfg.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", s.addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", s.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp new client: %w", err)
	}

	if !s.cfg.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				c.Close()
				return nil, fmt.Errorf("smtp STARTTLS: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := c.Auth(auth); err != nil {
		c.Close()
		return nil, fmt.Errorf("smtp auth: %w", err)
	}
	return c, nil
}

func (s *SMTPSender) SendWelcome(ctx context.Context, msg WelcomeMessage) error {
	body, err := RenderWelcome(s.cfg.sender(), s.cfg.FrontendURL, msg)
	if err != nil {
		return err
	}

	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Quit() //nolint:errcheck

	if err := c.Mail(s.cfg.sender()); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(msg.Email); err != nil {
		return fmt.Errorf("smtp RCPT TO %s: %w", msg.Email, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close: %w", err)
	}

	logger.Info("Mail: Приветственное письмо отправлено", zap.String("to", msg.Email))
	return nil
}

// Probe проверяет соединение и учётные данные SMTP при старте.
func (s *SMTPSender) Probe(ctx context.Context) error {
	c, err := s.dial(ctx)
	if err != nil {
		logger.Warn("Mail: SMTP недоступен", zap.String("addr", s.addr()), zap.Error(err))
		return err
	}
	_ = c.Quit()
	logger.Info("Mail: SMTP готов к отправке", zap.String("addr", s.addr()))
	return nil
}
