package mail

import (
	"context"

	"taskFlow/internal/logger"

	"go.uber.org/zap"
)

// LogSender пишет учётные данные в лог, когда SMTP не настроен.
type LogSender struct {
	frontendURL string
}

func NewLogSender(frontendURL string) *LogSender {
	return &LogSender{frontendURL: frontendURL}
}

func (s *LogSender) Configured() bool { return false }

func (s *LogSender) SendWelcome(ctx context.Context, msg WelcomeMessage) error {
	logger.Warn("Mail: SMTP не настроен, учётные данные нового пользователя",
		zap.String("name", msg.Name),
		zap.String("email", msg.Email),
		zap.String("temp_password", msg.TempPassword),
		zap.String("login_url", LoginURL(s.frontendURL)))
	return nil
}
