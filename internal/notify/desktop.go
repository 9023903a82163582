package notify

import (
	"fmt"
	"log"

	"github.com/gen2brain/beeep"
)

// DesktopChannel delivers notifications through the local desktop
// notification facility. Delivery fails when the environment has no
// notification support or the user has denied the permission.
type DesktopChannel struct{}

// NewDesktopChannel creates a desktop notification channel
func NewDesktopChannel() *DesktopChannel {
	return &DesktopChannel{}
}

// Deliver shows a desktop notification. Messages with RequireAck stay on
// screen until dismissed; others auto-expire after the OS default.
func (c *DesktopChannel) Deliver(msg Message) error {
	var err error
	if msg.RequireAck {
		err = beeep.Alert(msg.Title, msg.Body, "")
	} else {
		err = beeep.Notify(msg.Title, msg.Body, "")
	}
	if err != nil {
		return fmt.Errorf("failed to show desktop notification: %v", err)
	}
	log.Printf("Delivered desktop notification %q", msg.Title)
	return nil
}

// Test shows a test notification to verify the facility works here
func (c *DesktopChannel) Test() error {
	return c.Deliver(TestMessage())
}
