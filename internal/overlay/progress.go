package overlay

import (
	"time"

	"github.com/desertthunder/ytxq/internal/models"
)

func (c *Controller) startProgress() {
	if c.progress != nil || c.live == nil || c.advancing {
		return
	}
	c.progress = c.clock.Ticker(c.progressInterval)
}

func (c *Controller) stopProgress() {
	if c.progress == nil {
		return
	}
	c.progress.Stop()
	c.progress = nil
}

// progressC is nil while no ticker runs, which blocks that select case.
func (c *Controller) progressC() <-chan time.Time {
	if c.progress == nil {
		return nil
	}
	return c.progress.C
}

// tick samples the live position and falls back to ending the item on duration.
func (c *Controller) tick() {
	if c.live == nil {
		c.stopProgress()
		return
	}

	c.elapsed = c.live.Elapsed()
	total := c.live.TotalDuration()
	if total > 0 && c.elapsed >= total-c.threshold {
		c.logger.Debug("elapsed reached duration", "elapsed", c.elapsed, "total", total)
		c.requestAdvance(c.currentID, models.EndReasonDuration)
	}
}
