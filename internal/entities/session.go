// Package entities contains the core domain objects for the ferrywatch application
package entities

import (
	"fmt"
	"time"
)

// ChannelType selects the notification transport for a watch session
type ChannelType string

const (
	// ChannelTelegram delivers notifications through the Telegram Bot API
	ChannelTelegram ChannelType = "telegram"
	// ChannelDesktop delivers notifications through the local desktop facility
	ChannelDesktop ChannelType = "desktop"
)

// WatchSession represents one background capacity watch on a single departure
type WatchSession struct {
	ID                   string      // unique session identifier
	DepartureUID         string      // uid of the monitored departure
	Direction            string      // route/direction code, e.g. "HR"
	DepartureDate        string      // departure date, YYYY-MM-DD
	DepartureTime        string      // departure time, HH:MM local
	Route                string      // human-readable route label
	Threshold            int         // alert when small vehicle capacity drops below this
	Channel              ChannelType // notification transport
	TelegramBotToken     string      // only set when Channel is telegram
	TelegramChatID       string      // only set when Channel is telegram
	LastCheckedCapacity  int         // last observed small vehicle capacity, 0 = not yet checked
	LastNotificationSent time.Time   // when the last alert was delivered
	LastCapacityCheck    time.Time   // when the last poll cycle started
	Active               bool
	CreatedAt            time.Time
}

// DepartureAt combines DepartureDate and DepartureTime into a local wall-clock time
func (s *WatchSession) DepartureAt() (time.Time, error) {
	at, err := time.ParseInLocation("2006-01-02 15:04", s.DepartureDate+" "+s.DepartureTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid departure date/time %q %q: %v", s.DepartureDate, s.DepartureTime, err)
	}
	return at, nil
}
