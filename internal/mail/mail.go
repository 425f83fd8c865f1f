// Package mail отправляет приветственные письма новым пользователям.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"strings"
	"time"
)

// WelcomeMessage - данные приветственного письма с временным паролем.
type WelcomeMessage struct {
	Name         string
	Email        string
	TempPassword string
}

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	UseTLS      bool
	FrontendURL string
	Timeout     time.Duration
}

// Configured сообщает, достаточно ли настроек для отправки через SMTP.
func (c Config) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

const welcomeSubject = "Welcome to TaskFlow - your account is ready"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Welcome to TaskFlow, {{.Name}}!</h2>
  <p>An administrator has created an account for you.</p>
  <p>
    Email: <strong>{{.Email}}</strong><br>
    Temporary password: <strong>{{.TempPassword}}</strong>
  </p>
  <p><a href="{{.LoginURL}}">Log in to TaskFlow</a> and change your password after the first login.</p>
</body>
</html>
`))

type welcomeView struct {
	WelcomeMessage
	LoginURL string
}

// LoginURL - ссылка на страницу входа фронтенда.
func LoginURL(frontendURL string) string {
	return strings.TrimRight(frontendURL, "/") + "/login"
}

// RenderWelcome собирает письмо целиком: заголовки и HTML тело.
func RenderWelcome(from, frontendURL string, msg WelcomeMessage) ([]byte, error) {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, welcomeView{WelcomeMessage: msg, LoginURL: LoginURL(frontendURL)}); err != nil {
		return nil, fmt.Errorf("шаблон письма: %w", err)
	}

	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n",
		from, msg.Email, mime.QEncoding.Encode("utf-8", welcomeSubject),
	)
	return append([]byte(headers), body.Bytes()...), nil
}

type Sender interface {
	Configured() bool
	SendWelcome(ctx context.Context, msg WelcomeMessage) error
}

// New возвращает SMTP отправителя, если SMTP настроен, иначе отправителя в лог.
func New(cfg Config) Sender {
	if cfg.Configured() {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(cfg.FrontendURL)
}
