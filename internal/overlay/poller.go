package overlay

import "github.com/desertthunder/ytxq/internal/models"

// fetch starts a state fetch unless one is already outstanding.
func (c *Controller) fetch() {
	if c.fetching {
		c.logger.Debug("poll skipped, previous fetch still in flight")
		return
	}
	c.fetching = true

	go func() {
		ctx, cancel := c.requestContext()
		defer cancel()
		snap, err := c.service.FetchState(ctx, c.owner)
		c.post(func() { c.finishFetch(snap, err) })
	}()
}

func (c *Controller) finishFetch(snap *models.QueueSnapshot, err error) {
	c.fetching = false
	if !c.mounted {
		return
	}
	if err != nil {
		c.pollFailures++
		c.logger.Warn("failed to fetch queue state", "error", err, "failures", c.pollFailures)
		return
	}

	c.pollFailures = 0
	if id := c.retry.id; !id.IsZero() {
		reason := c.retry.reason
		c.retry = pendingAdvance{}
		if snap.CurrentID() == id && !c.advancing {
			c.snapshot = snap
			c.lastSync = c.clock.Now()
			c.logger.Info("retrying advance for stale current item", "item", id)
			c.requestAdvance(id, reason)
			return
		}
	}
	c.apply(snap)
}

// apply replaces the local snapshot wholesale and reconciles playback against it.
func (c *Controller) apply(snap *models.QueueSnapshot) {
	c.snapshot = snap
	c.applied++
	c.lastSync = c.clock.Now()
	c.reconcile()
	c.kickstart()
}
