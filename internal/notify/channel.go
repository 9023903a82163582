// Package notify provides the notification channels used by watch sessions
package notify

import (
	"fmt"

	"github.com/martlaht/ferrywatch/internal/entities"
)

// Message is the channel-independent content of one notification.
// RequireAck asks the channel to keep the notification visible until the
// user dismisses it; channels without that concept ignore the flag.
type Message struct {
	Title      string
	Body       string
	RequireAck bool
}

// Channel delivers notifications over one transport
type Channel interface {
	// Deliver sends one notification. A non-nil error means the message
	// was not delivered; delivery is best-effort and never retried.
	Deliver(msg Message) error

	// Test verifies the channel is usable by sending a test notification
	Test() error
}

// Factory builds the channel configured on a watch session
type Factory interface {
	ChannelFor(s *entities.WatchSession) (Channel, error)
}

// ChannelFactory is the default Factory backed by the real transports
type ChannelFactory struct{}

// NewChannelFactory creates the default channel factory
func NewChannelFactory() *ChannelFactory {
	return &ChannelFactory{}
}

// ChannelFor returns the channel selected by the session's configuration
func (f *ChannelFactory) ChannelFor(s *entities.WatchSession) (Channel, error) {
	switch s.Channel {
	case entities.ChannelTelegram:
		return NewTelegramChannel(s.TelegramBotToken, s.TelegramChatID)
	case entities.ChannelDesktop:
		return NewDesktopChannel(), nil
	default:
		return nil, fmt.Errorf("unknown notification channel %q", s.Channel)
	}
}
