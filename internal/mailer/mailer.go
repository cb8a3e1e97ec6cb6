// Package mailer holds the out-of-band delivery seam for verification mail.
// Real delivery is an external collaborator; the default implementation only
// logs that a message would have been sent.
package mailer

import (
	"context"

	"github.com/arunabh-a/Colbin-Assignment/internal/logger"
)

type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendVerification records the intent to deliver. The token itself is not
// logged.
func (m *LogMailer) SendVerification(_ context.Context, email, _ string) error {
	m.log.Info("verification mail queued", "email", email)
	return nil
}
