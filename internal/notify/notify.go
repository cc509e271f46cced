// Package notify sends confirmation messages after reservations and sales.
// Delivery is fire and forget: a failed notification is logged and never
// rolls back or blocks the inventory transaction it follows.
package notify

import "log"

type Notifier interface {
	ReservationCreated(drawingName, claimantName string, elements []string) error
	SaleSettled(drawingName, claimantName string, elements []string) error
}

// LogNotifier writes notifications to the service log. It is the fallback
// when no Telegram token is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ReservationCreated(drawingName, claimantName string, elements []string) error {
	n.logger.Printf("notify: %s reserved %v in %q", claimantName, elements, drawingName)
	return nil
}

func (n *LogNotifier) SaleSettled(drawingName, claimantName string, elements []string) error {
	n.logger.Printf("notify: %s bought %v in %q", claimantName, elements, drawingName)
	return nil
}
