package overlay

import (
	"fmt"

	"github.com/desertthunder/ytxq/internal/playback"
	"github.com/desertthunder/ytxq/internal/shared"
)

// Resume retries playback after the backend blocked autoplay.
//
// It is safe to call from any goroutine and returns [shared.ErrNotRunning] outside [Controller.Run].
func (c *Controller) Resume() error {
	return c.call(c.resume)
}

func (c *Controller) resume() error {
	if c.live == nil {
		return shared.ErrNothingPlaying
	}
	if err := c.live.Play(); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	if c.needsResume {
		c.logger.Info("playback resumed manually", "item", c.currentID)
	}
	c.needsResume = false
	if c.state == playback.StatePaused {
		c.state = playback.StatePlaying
	}
	return nil
}
