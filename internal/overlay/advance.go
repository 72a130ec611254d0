package overlay

import "github.com/desertthunder/ytxq/internal/models"

// pendingAdvance remembers a failed advance so the next poll can retry it.
type pendingAdvance struct {
	id     models.ItemID
	reason models.EndReason
}

// requestAdvance asks the server to move past completed (zero for a kickstart).
//
// At most one advance is outstanding; requests made while one is in flight are dropped.
// It reports whether a request was started.
func (c *Controller) requestAdvance(completed models.ItemID, reason models.EndReason) bool {
	if c.advancing {
		c.logger.Debug("advance already in flight", "completed", completed, "reason", reason)
		return false
	}
	c.advancing = true
	c.advances++
	c.stopProgress()
	if !completed.IsZero() && completed == c.currentID {
		c.endReason = reason
	}

	if completed.IsZero() {
		c.logger.Info("kickstarting queue")
	} else {
		c.logger.Info("advancing queue", "completed", completed, "reason", reason)
	}

	seen := c.applied
	go func() {
		ctx, cancel := c.requestContext()
		defer cancel()
		snap, err := c.service.Advance(ctx, c.owner, completed)
		c.post(func() { c.finishAdvance(completed, reason, seen, snap, err) })
	}()
	return true
}

// finishAdvance handles an advance response. seen is the applied-snapshot count at launch.
func (c *Controller) finishAdvance(completed models.ItemID, reason models.EndReason, seen uint64, snap *models.QueueSnapshot, err error) {
	c.advancing = false
	if !c.mounted {
		return
	}

	if err != nil {
		c.logger.Warn("failed to advance queue", "completed", completed, "error", err)
		if !completed.IsZero() {
			c.retry = pendingAdvance{id: completed, reason: reason}
		}
		return
	}

	// A poll applied since launch that no longer shows completed as current wins over the response.
	if !completed.IsZero() && c.applied != seen && c.snapshot.CurrentID() != completed {
		c.logger.Debug("dropping stale advance response", "completed", completed, "current", c.currentID)
		if c.live != nil && c.ready {
			c.startProgress()
		}
		c.kickstart()
		return
	}

	prev := c.currentID
	c.apply(snap)
	if c.live != nil && c.currentID == prev && c.ready && !c.advancing {
		c.startProgress()
	}
}

// kickstart advances with no completed item when the server has a queue but nothing current.
func (c *Controller) kickstart() {
	if c.snapshot.Stalled() && !c.advancing {
		c.requestAdvance("", models.EndReasonNone)
	}
}
