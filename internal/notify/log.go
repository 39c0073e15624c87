package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Send(_ context.Context, n Notification) error {
	l.log.WithFields(logrus.Fields{
		"kind":      n.Kind,
		"recipient": n.Recipient,
		"payload":   n.Payload,
	}).Info("notification")
	return nil
}
