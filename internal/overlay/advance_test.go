package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/playback"
	"github.com/desertthunder/ytxq/internal/shared"
	tu "github.com/desertthunder/ytxq/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	t.Run("end event and duration fallback advance once", func(t *testing.T) {
		a, b := item("1", "v1", 100), item("2", "v2", 100)
		svc := tu.NewFakeQueueService(&a, b)
		h := newHarness(t, svc)
		h.factory.SetDuration(100)
		h.run()

		m := h.waitPlaying("1")
		h.ready(m)

		release := svc.HoldAdvance()
		m.SetElapsed(99.8)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); m.Emit(playback.StateChanged(playback.StateEnded)) }()
		go func() { defer wg.Done(); h.clock.Add(time.Second) }()
		wg.Wait()

		h.waitStatus("advancing", func(s Status) bool { return s.Advancing })
		m.Emit(playback.StateChanged(playback.StateEnded))
		m.Emit(playback.Failed(shared.ErrUnplayable))
		assert.Never(t, func() bool { return len(svc.AdvanceCalls()) > 1 }, 50*time.Millisecond, tick)

		release()
		h.waitPlaying("2")
		assert.Equal(t, []models.ItemID{"1"}, svc.AdvanceCalls())
		assert.Equal(t, 1, h.ctrl.Status().Advances)
	})

	t.Run("kickstart is single flight across polls", func(t *testing.T) {
		svc := tu.NewFakeQueueService(nil, item("A", "va", 60), item("B", "vb", 60))
		release := svc.HoldAdvance()
		h := newHarness(t, svc)
		h.opts.PollInterval = 5 * time.Second
		h.run()

		h.waitAdvances(1)
		for range 3 {
			h.poll()
		}
		assert.Equal(t, []models.ItemID{""}, svc.AdvanceCalls())
		assert.Equal(t, 0, h.factory.Count())

		release()
		h.waitPlaying("A")
		assert.Equal(t, []models.ItemID{""}, svc.AdvanceCalls())
		assert.Equal(t, 1, h.factory.Count())
	})

	t.Run("error event advances", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a, item("2", "v2", 100))
		h := newHarness(t, svc).run()

		m := h.waitPlaying("1")
		m.Emit(playback.Failed(shared.ErrUnplayable))

		h.waitPlaying("2")
		assert.Equal(t, []models.ItemID{"1"}, svc.AdvanceCalls())
		assert.True(t, m.Disposed())
	})

	t.Run("failed advance is retried while the server still shows the item", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a, item("2", "v2", 100))
		h := newHarness(t, svc)
		h.opts.PollInterval = 5 * time.Second
		h.run()

		m := h.waitPlaying("1")
		h.ready(m)

		svc.FailAdvance(shared.ErrServiceUnavailable)
		m.Emit(playback.StateChanged(playback.StateEnded))
		h.waitAdvances(1)
		h.waitStatus("advance settled", func(s Status) bool { return !s.Advancing })
		assert.False(t, h.ctrl.Status().Tracking, "progress stays stopped after a failed advance")

		svc.FailAdvance(nil)
		h.poll()

		h.waitPlaying("2")
		assert.Equal(t, []models.ItemID{"1", "1"}, svc.AdvanceCalls())
	})

	t.Run("retry is dropped when the server moved on", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a)
		h := newHarness(t, svc)
		h.opts.PollInterval = 5 * time.Second
		h.run()

		m := h.waitPlaying("1")
		svc.FailAdvance(shared.ErrServiceUnavailable)
		m.Emit(playback.StateChanged(playback.StateEnded))
		h.waitAdvances(1)
		h.waitStatus("advance settled", func(s Status) bool { return !s.Advancing })

		svc.FailAdvance(nil)
		b := item("7", "v7", 100)
		svc.SetSnapshot(models.QueueSnapshot{Enabled: true, Current: &b})
		h.poll()

		h.waitPlaying("7")
		assert.Equal(t, []models.ItemID{"1"}, svc.AdvanceCalls())
	})

	t.Run("late response is dropped once a poll moved past the item", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a, item("2", "v2", 100))
		h := newHarness(t, svc)
		h.opts.PollInterval = 5 * time.Second
		h.run()

		m := h.waitPlaying("1")
		h.ready(m)

		release := svc.HoldAdvance()
		two := item("2", "v2", 100)
		svc.RespondToNextAdvance(models.QueueSnapshot{Enabled: true, Current: &two})
		m.Emit(playback.StateChanged(playback.StateEnded))
		h.waitAdvances(1)

		three := item("3", "v3", 100)
		svc.SetSnapshot(models.QueueSnapshot{Enabled: true, Current: &three})
		h.poll()
		newer := h.waitPlaying("3")

		release()
		h.waitStatus("advance settled", func(s Status) bool { return !s.Advancing })

		assert.Equal(t, 2, h.factory.Count(), "the older item must not be rebuilt")
		assert.False(t, newer.Disposed())
		require.NotNil(t, h.ctrl.Status().Current)
		assert.Equal(t, models.ItemID("3"), h.ctrl.Status().Current.ID)
	})

	t.Run("response is applied when polls still show the completed item", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a, item("2", "v2", 100))
		h := newHarness(t, svc)
		h.opts.PollInterval = 5 * time.Second
		h.run()

		m := h.waitPlaying("1")
		release := svc.HoldAdvance()
		m.Emit(playback.StateChanged(playback.StateEnded))
		h.waitAdvances(1)
		h.poll()

		release()
		h.waitPlaying("2")
		assert.Equal(t, []models.ItemID{"1"}, svc.AdvanceCalls())
	})
}

func TestDurationBackfill(t *testing.T) {
	t.Run("measured duration is reported once then drives the advance", func(t *testing.T) {
		a := item("1", "v1", 0)
		svc := tu.NewFakeQueueService(&a, item("2", "v2", 0))
		h := newHarness(t, svc)
		h.factory.SetDuration(120)
		h.run()

		first := h.waitPlaying("1")
		h.ready(first)
		first.Emit(playback.Ready())

		require.Eventually(t, func() bool { return svc.DurationReports() >= 1 }, waitFor, tick)
		d, ok := svc.ReportedDuration("1")
		require.True(t, ok)
		assert.Equal(t, 120, d)

		first.SetElapsed(119.6)
		h.clock.Add(time.Second)

		second := h.waitPlaying("2")
		assert.NotSame(t, first, second)
		assert.Equal(t, []models.ItemID{"1"}, svc.AdvanceCalls())
		assert.Equal(t, 0.0, h.ctrl.Status().Elapsed)
		assert.Equal(t, 1, svc.DurationReports())
	})

	t.Run("known duration is never reported", func(t *testing.T) {
		a := item("1", "v1", 100)
		svc := tu.NewFakeQueueService(&a)
		h := newHarness(t, svc)
		h.factory.SetDuration(100)
		h.run()

		h.ready(h.waitPlaying("1"))
		assert.Never(t, func() bool { return svc.DurationReports() > 0 }, 50*time.Millisecond, tick)
	})

	t.Run("unknown measured duration is not reported", func(t *testing.T) {
		a := item("1", "v1", 0)
		svc := tu.NewFakeQueueService(&a)
		h := newHarness(t, svc).run()

		m := h.waitPlaying("1")
		h.ready(m)
		m.SetElapsed(500)
		h.clock.Add(time.Second)

		h.waitStatus("elapsed sampled", func(s Status) bool { return s.Elapsed == 500 })
		assert.Equal(t, 0, svc.DurationReports())
		assert.Empty(t, svc.AdvanceCalls(), "no duration fallback without a total")
	})
}

func TestResume(t *testing.T) {
	t.Run("clears a blocked autoplay", func(t *testing.T) {
		a := item("1", "v1", 100)
		h := newHarness(t, tu.NewFakeQueueService(&a)).run()

		m := h.waitPlaying("1")
		m.Emit(playback.AutoplayBlocked())
		h.waitStatus("needs resume", func(s Status) bool { return s.NeedsManualResume })
		assert.Equal(t, playback.StatePaused, h.ctrl.Status().State)

		require.NoError(t, h.ctrl.Resume())
		assert.Equal(t, 2, m.PlayCalls())
		h.waitStatus("resumed", func(s Status) bool { return !s.NeedsManualResume })
		assert.Equal(t, playback.StatePlaying, h.ctrl.Status().State)
	})

	t.Run("nothing playing", func(t *testing.T) {
		h := newHarness(t, tu.NewFakeQueueService(nil)).run()
		h.waitStatus("synced", func(s Status) bool { return s.Synced })
		assert.ErrorIs(t, h.ctrl.Resume(), shared.ErrNothingPlaying)
	})

	t.Run("play failure is returned", func(t *testing.T) {
		a := item("1", "v1", 100)
		h := newHarness(t, tu.NewFakeQueueService(&a)).run()

		m := h.waitPlaying("1")
		m.SetPlayError(shared.ErrDisposed)
		assert.ErrorIs(t, h.ctrl.Resume(), shared.ErrDisposed)
	})
}

func TestStatusProgress(t *testing.T) {
	tests := []struct {
		name string
		s    Status
		want float64
	}{
		{name: "unknown duration", s: Status{Elapsed: 10}, want: 0},
		{name: "halfway", s: Status{Elapsed: 30, Duration: 60}, want: 0.5},
		{name: "over", s: Status{Elapsed: 90, Duration: 60}, want: 1},
		{name: "negative", s: Status{Elapsed: -1, Duration: 60}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.s.Progress(), 1e-9)
		})
	}
}
