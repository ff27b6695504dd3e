package chain

import (
	"fmt"

	"github.com/dudk/clipchain/loop"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/mutable"
	"github.com/dudk/clipchain/stretch"
	"github.com/dudk/clipchain/supply"
)

// EnableCache materializes the material below the cache. It blocks and
// must not run concurrently with supply calls.
func (c *Chain) EnableCache() {
	c.cache.Enable()
	c.logger.Debug(fmt.Sprintf("chain %v: cache enabled: %v", c.id, c.cache.IsCached()))
}

// EnableCacheAsync builds the cache from a supplier that produces the same
// material as stages below the cache, but isn't supplied by anyone else.
// Returned channel is closed when cache is published.
func (c *Chain) EnableCacheAsync(from supply.Supplier) (<-chan struct{}, error) {
	if c.builder == nil {
		return nil, ErrNoBuilder
	}
	if c.resampler.TempoFactor() != 1 {
		return nil, fmt.Errorf("chain %v: enable cache at tempo %v: %w", c.id, c.resampler.TempoFactor(), ErrTempoChanged)
	}
	done, err := c.builder.Build(c.cache, from)
	if err != nil {
		return nil, fmt.Errorf("chain %v: enable cache: %w", c.id, err)
	}
	return done, nil
}

// DisableCache drops cached material.
func (c *Chain) DisableCache() {
	c.cache.Disable()
}

// Suspend fades out and stops playback at frame. Cached material doesn't
// pass the suspender, the fader above the cache fades it out instead.
func (c *Chain) Suspend(frame int) {
	if c.cache.IsCached() {
		c.fadeSuspended = true
		c.fader.StartFadeOut(frame)
		return
	}
	c.suspender.Suspend(frame)
}

// IsSuspending returns true until suspension started with Suspend is
// complete.
func (c *Chain) IsSuspending() bool {
	if c.fadeSuspended {
		return c.fader.IsFadingOut()
	}
	return c.suspender.IsSuspending()
}

// ResetSuspender cancels suspension.
func (c *Chain) ResetSuspender() {
	if c.fadeSuspended {
		c.fader.Reset()
		c.fadeSuspended = false
	}
	c.suspender.Reset()
}

// StartFadeIn starts ad-hoc fade in at frame.
func (c *Chain) StartFadeIn(frame int) {
	c.fader.StartFadeIn(frame)
}

// StartFadeOut starts ad-hoc fade out at frame.
func (c *Chain) StartFadeOut(frame int) {
	c.fader.StartFadeOut(frame)
}

// ResetFader cancels ad-hoc fade.
func (c *Chain) ResetFader() {
	c.fader.Reset()
}

// SetEnabledForStart toggles start handling of start/end fader.
func (c *Chain) SetEnabledForStart(enabled bool) {
	c.startEnd.SetEnabledForStart(enabled)
}

// SetEnabledForEnd toggles end handling of start/end fader.
func (c *Chain) SetEnabledForEnd(enabled bool) {
	c.startEnd.SetEnabledForEnd(enabled)
}

// SetAudioFadesEnabled toggles audio fades at material start and end.
func (c *Chain) SetAudioFadesEnabled(enabled bool) {
	c.startEnd.SetAudioFadesEnabled(enabled)
}

// SetMidiResetMsgRange sets messages sent at material, section and loop
// boundaries.
func (c *Chain) SetMidiResetMsgRange(r midi.ResetMessageRange) {
	c.startEnd.SetMidiResetMsgRange(r)
	c.section.SetMidiResetMsgRange(r)
	c.looper.SetMidiResetMsgRange(r)
}

// SetTempoFactor sets playback tempo relative to material tempo. Cached
// material is dropped when tempo changes.
func (c *Chain) SetTempoFactor(factor float64) {
	if factor > 0 && factor != c.resampler.TempoFactor() {
		c.cache.Disable()
	}
	c.resampler.SetTempoFactor(factor)
	c.stretcher.SetTempoFactor(factor)
}

// SetMode selects the stage responsible for tempo.
func (c *Chain) SetMode(mode stretch.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", stretch.ErrInvalidMode, mode)
	}
	if mode != c.mode {
		c.stretcher.Reset()
		if c.resampler.TempoFactor() != 1 {
			c.cache.Disable()
		}
	}
	c.mode = mode
	c.resampler.SetResponsibleForTempo(mode == stretch.Resample)
	c.stretcher.SetResponsibleForTempo(mode == stretch.Stretch)
	return nil
}

// SetVolume sets amplifier volume in decibels.
func (c *Chain) SetVolume(db float64) {
	c.amplifier.SetVolume(db)
}

// SetDownbeatFrame sets downbeat position of material.
func (c *Chain) SetDownbeatFrame(frame int) {
	c.downbeat.SetDownbeatFrame(frame)
}

// SetDownbeatEnabled toggles downbeat alignment.
func (c *Chain) SetDownbeatEnabled(enabled bool) {
	c.downbeat.SetEnabled(enabled)
}

// SetLoopEnabled toggles looping.
func (c *Chain) SetLoopEnabled(enabled bool) {
	c.looper.SetEnabled(enabled)
}

// SetLoopBehavior sets how many cycles are played.
func (c *Chain) SetLoopBehavior(b loop.Behavior) {
	c.looper.SetLoopBehavior(b)
}

// SetSection restricts playback to length frames of material starting at
// start. Zero length plays until the end of material. Cached material is
// dropped.
func (c *Chain) SetSection(start, length int) error {
	if err := c.section.SetBounds(start, length); err != nil {
		return fmt.Errorf("chain %v: set section [%d, +%d): %w", c.id, start, length, err)
	}
	c.cache.Disable()
	c.stretcher.Reset()
	return nil
}

// ResetSection makes the entire material playable again.
func (c *Chain) ResetSection() {
	if start, length := c.section.Bounds(); start == 0 && length == 0 {
		return
	}
	c.section.Reset()
	c.cache.Disable()
	c.stretcher.Reset()
}

// ReplaceSource swaps material source and drops recorded take and cached
// material.
func (c *Chain) ReplaceSource(s supply.Supplier) {
	c.recorder.Replace(s)
	c.cache.Disable()
	c.stretcher.Reset()
}

// Mutation returns a mutation that calls fn with the chain on the
// supplying thread.
func (c *Chain) Mutation(fn func(*Chain)) mutable.Mutation {
	return c.Context.Mutate(func() {
		fn(c)
	})
}

// VolumeMutation returns mutation of amplifier volume.
func (c *Chain) VolumeMutation(db float64) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.SetVolume(db)
	})
}

// TempoMutation returns mutation of tempo factor.
func (c *Chain) TempoMutation(factor float64) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.SetTempoFactor(factor)
	})
}

// SuspendMutation returns mutation that suspends playback at frame.
func (c *Chain) SuspendMutation(frame int) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.Suspend(frame)
	})
}

// FadeInMutation returns mutation that starts fade in at frame.
func (c *Chain) FadeInMutation(frame int) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.StartFadeIn(frame)
	})
}

// FadeOutMutation returns mutation that starts fade out at frame.
func (c *Chain) FadeOutMutation(frame int) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.StartFadeOut(frame)
	})
}

// LoopMutation returns mutation that toggles looping.
func (c *Chain) LoopMutation(enabled bool) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.SetLoopEnabled(enabled)
	})
}

// DownbeatMutation returns mutation of downbeat frame.
func (c *Chain) DownbeatMutation(frame int) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.SetDownbeatFrame(frame)
	})
}

// ModeMutation returns mutation of tempo mode. Invalid modes are ignored.
func (c *Chain) ModeMutation(mode stretch.Mode) mutable.Mutation {
	return c.Context.Mutate(func() {
		if err := c.SetMode(mode); err != nil {
			c.logger.Debug(err)
		}
	})
}

// SectionMutation returns mutation of section bounds. Invalid bounds are
// ignored.
func (c *Chain) SectionMutation(start, length int) mutable.Mutation {
	return c.Context.Mutate(func() {
		if err := c.SetSection(start, length); err != nil {
			c.logger.Debug(err)
		}
	})
}

// ReplaceSourceMutation returns mutation that hands committed take or new
// material over to the supplying thread.
func (c *Chain) ReplaceSourceMutation(s supply.Supplier) mutable.Mutation {
	return c.Context.Mutate(func() {
		c.ReplaceSource(s)
	})
}

// DisableCacheMutation returns mutation that drops cached material.
func (c *Chain) DisableCacheMutation() mutable.Mutation {
	return c.Context.Mutate(c.DisableCache)
}
