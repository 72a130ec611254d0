package overlay

import (
	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/playback"
)

// reconcile rebuilds the capability iff the snapshot's current item differs from the live one.
func (c *Controller) reconcile() {
	var next *models.Item
	if !c.snapshot.Inert() {
		next = c.snapshot.Current
	}

	var nextID models.ItemID
	if next != nil {
		nextID = next.ID
	}
	if nextID != c.failedID {
		c.failedID = ""
	}
	if nextID == c.currentID || (c.live == nil && nextID == c.failedID) {
		return
	}

	if !c.currentID.IsZero() {
		c.logger.Info("current item changed", "from", c.currentID, "to", nextID)
	}
	c.teardown(models.EndReasonReplaced)
	if next != nil {
		c.build(*next)
	}
}

// build constructs and starts a capability for item in a fresh render target.
func (c *Controller) build(item models.Item) {
	c.gen++
	gen := c.gen
	c.currentID = item.ID
	c.current = &item
	c.elapsed = 0
	c.endReason = models.EndReasonNone

	logger := c.logger.With("item", item.ID, "source", item.SourceID)

	target, err := c.surface.NewTarget()
	if err != nil {
		c.unplayable(item, err)
		return
	}
	c.target = target

	capability, err := c.factory(target, item.SourceID)
	if err != nil {
		c.unplayable(item, err)
		return
	}
	c.live = capability
	capability.Subscribe(func(e playback.Event) {
		c.post(func() { c.handleEvent(gen, e) })
	})
	c.journal.Start(gen, c.owner, item, c.clock.Now())

	if err := capability.Play(); err != nil {
		c.unplayable(item, err)
		return
	}
	logger.Info("playing item", "title", item.DisplayTitle())
}

// unplayable releases what build allocated and asks the server to move past item.
func (c *Controller) unplayable(item models.Item, err error) {
	c.logger.Warn("item is unplayable", "item", item.ID, "source", item.SourceID, "error", err)
	c.endReason = models.EndReasonFailed
	c.teardown(models.EndReasonFailed)
	c.failedID = item.ID
	c.requestAdvance(item.ID, models.EndReasonFailed)
}

// teardown disposes the live capability and resets per-item state. Safe to call with nothing live.
func (c *Controller) teardown(reason models.EndReason) {
	c.stopProgress()

	if c.live != nil {
		if err := c.live.Dispose(); err != nil {
			c.logger.Warn("failed to dispose player", "item", c.currentID, "error", err)
		}
		c.live = nil
		if c.endReason != models.EndReasonNone {
			reason = c.endReason
		}
		c.journal.Finish(c.gen, c.clock.Now(), reason)
	}
	if c.target != nil {
		if err := c.target.Release(); err != nil {
			c.logger.Warn("failed to release render target", "item", c.currentID, "error", err)
		}
		c.target = nil
	}

	c.currentID = ""
	c.current = nil
	c.elapsed = 0
	c.ready = false
	c.state = ""
	c.backfilled = false
	c.needsResume = false
	c.endReason = models.EndReasonNone
}

// handleEvent applies a capability event. Events from a replaced capability are dropped.
func (c *Controller) handleEvent(gen uint64, e playback.Event) {
	if gen != c.gen || c.live == nil || !c.mounted {
		c.logger.Debug("dropping stale player event", "event", e.Kind, "generation", gen)
		return
	}

	switch e.Kind {
	case playback.EventReady:
		c.ready = true
		c.state = playback.StatePlaying
		c.startProgress()
		c.backfill()
	case playback.EventStateChanged:
		c.state = e.State
		if e.State == playback.StateEnded {
			c.requestAdvance(c.currentID, models.EndReasonEnded)
		}
	case playback.EventError:
		c.logger.Warn("player reported an error", "item", c.currentID, "error", e.Err)
		c.requestAdvance(c.currentID, models.EndReasonError)
	case playback.EventAutoplayBlocked:
		c.needsResume = true
		c.state = playback.StatePaused
		c.logger.Warn("autoplay blocked, waiting for manual resume", "item", c.currentID)
	}
}
