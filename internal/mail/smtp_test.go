package mail_test

import (
	"context"
	"encoding/base64"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"taskFlow/internal/auth"
	"taskFlow/internal/mail"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository/inmemory"
	"taskFlow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smtpServer - SMTP сервер по сценарию: отвечает 250 на всё, кроме команд из reject.
type smtpServer struct {
	ln     net.Listener
	reject map[string]string

	mtx   sync.Mutex
	lines []string
	data  string
}

func startSMTPServer(t *testing.T, reject map[string]string) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := &smtpServer{ln: ln, reject: reject}
	go srv.serve()
	return srv
}

func (s *smtpServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpServer) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP test")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		s.mtx.Lock()
		s.lines = append(s.lines, line)
		s.mtx.Unlock()

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		if reply, ok := s.reject[verb]; ok {
			_ = tp.PrintfLine("%s", reply)
			continue
		}

		switch verb {
		case "EHLO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			_ = tp.PrintfLine("235 2.7.0 Authentication successful")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			s.mtx.Lock()
			s.data = strings.Join(body, "\n")
			s.mtx.Unlock()
			_ = tp.PrintfLine("250 2.0.0 OK queued")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

// verbs возвращает команды клиента без аргументов в порядке получения.
func (s *smtpServer) verbs() []string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	res := make([]string, 0, len(s.lines))
	for _, line := range s.lines {
		res = append(res, strings.SplitN(line, " ", 2)[0])
	}
	return res
}

func (s *smtpServer) received() ([]string, string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]string(nil), s.lines...), s.data
}

func senderFor(srv *smtpServer) *mail.SMTPSender {
	return mail.NewSMTPSender(mail.Config{
		Host:        "127.0.0.1",
		Port:        srv.port(),
		Username:    "noreply@example.com",
		Password:    "smtp-pass",
		FrontendURL: "https://app.example.com",
		Timeout:     2 * time.Second,
	})
}

var welcome = mail.WelcomeMessage{Name: "Ann", Email: "ann@example.com", TempPassword: "Ab1!xyzXYZ12"}

func TestSMTPSender_SendWelcome(t *testing.T) {
	srv := startSMTPServer(t, nil)

	require.NoError(t, senderFor(srv).SendWelcome(context.Background(), welcome))

	assert.Equal(t, []string{"EHLO", "AUTH", "MAIL", "RCPT", "DATA", "QUIT"}, srv.verbs())

	lines, data := srv.received()
	credentials := base64.StdEncoding.EncodeToString([]byte("\x00noreply@example.com\x00smtp-pass"))
	assert.Equal(t, "AUTH PLAIN "+credentials, lines[1])
	assert.Equal(t, "MAIL FROM:<noreply@example.com>", lines[2])
	assert.Equal(t, "RCPT TO:<ann@example.com>", lines[3])

	assert.Contains(t, data, "To: ann@example.com")
	assert.Contains(t, data, "Ab1!xyzXYZ12")
	assert.Contains(t, data, `href="https://app.example.com/login"`)
}

func TestSMTPSender_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		reject    map[string]string
		errSubstr string
	}{
		{
			name:      "recipient rejected",
			reject:    map[string]string{"RCPT": "550 5.1.1 No such user"},
			errSubstr: "RCPT TO",
		},
		{
			name:      "auth rejected",
			reject:    map[string]string{"AUTH": "535 5.7.8 Authentication credentials invalid"},
			errSubstr: "smtp auth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := startSMTPServer(t, tt.reject)

			err := senderFor(srv).SendWelcome(context.Background(), welcome)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.NotContains(t, srv.verbs(), "DATA", "письмо не должно уйти")
		})
	}
}

func TestSMTPSender_Probe(t *testing.T) {
	srv := startSMTPServer(t, nil)
	require.NoError(t, senderFor(srv).Probe(context.Background()))
	assert.Equal(t, []string{"EHLO", "AUTH", "QUIT"}, srv.verbs())

	rejecting := startSMTPServer(t, map[string]string{"AUTH": "535 5.7.8 Authentication credentials invalid"})
	assert.Error(t, senderFor(rejecting).Probe(context.Background()))

	// порт закрытого слушателя
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	unreachable := mail.NewSMTPSender(mail.Config{Host: "127.0.0.1", Port: port, Username: "u", Password: "p", Timeout: time.Second})
	assert.Error(t, unreachable.Probe(context.Background()))
}

func TestAdminCreateUser_SMTPFailureReportsFailedStatus(t *testing.T) {
	tests := []struct {
		name   string
		reject map[string]string
		status string
	}{
		{name: "delivered", status: service.EmailSent},
		{name: "recipient rejected", reject: map[string]string{"RCPT": "550 5.1.1 No such user"}, status: service.EmailFailed},
		{name: "auth rejected", reject: map[string]string{"AUTH": "535 5.7.8 Authentication credentials invalid"}, status: service.EmailFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := startSMTPServer(t, tt.reject)
			storage := inmemory.New()
			admin := service.NewAdminService(storage.Users(), storage.Tasks(), storage.Audit(),
				auth.NewPasswordHasher(4), senderFor(srv), service.AdminOptions{PasswordLength: 12}, nil)

			created, err := admin.CreateUser(context.Background(), service.CreateUserInput{
				Name: "Ann", Email: "ann@example.com", Role: user.RoleUser,
			})

			require.NoError(t, err, "ошибка почты не прерывает создание")
			assert.Equal(t, tt.status, created.EmailStatus)

			_, err = storage.Users().GetByEmail(context.Background(), "ann@example.com")
			assert.NoError(t, err)
		})
	}
}
