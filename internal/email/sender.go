package email

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Sender envia un correo HTML. No reintenta ni encola.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, htmlBody string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _, _, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// LogSender solo registra el contenido del correo. Pensado para desarrollo.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, toEmail, subject, htmlBody string) error {
	if strings.TrimSpace(toEmail) == "" {
		return errors.New("to email is required")
	}
	s.logger.Info("email",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("body", htmlBody),
	)
	return nil
}
