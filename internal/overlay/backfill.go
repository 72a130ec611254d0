package overlay

import "math"

// backfill reports the measured duration once per capability when the server has none.
func (c *Controller) backfill() {
	if c.backfilled || c.live == nil || c.current == nil {
		return
	}
	if _, known := c.current.KnownDuration(); known {
		return
	}

	seconds := int(math.Round(c.live.TotalDuration()))
	if seconds <= 0 {
		return
	}
	c.backfilled = true
	c.journal.Duration(c.gen, seconds)

	id := c.currentID
	logger := c.logger.With("item", id, "seconds", seconds)
	go func() {
		ctx, cancel := c.requestContext()
		defer cancel()
		if err := c.service.ReportDuration(ctx, c.owner, id, seconds); err != nil {
			logger.Warn("failed to report duration", "error", err)
			return
		}
		logger.Debug("reported duration")
	}()
}
