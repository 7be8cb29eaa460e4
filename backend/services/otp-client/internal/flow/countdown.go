package flow

import "fmt"

// countdown holds the per-popup timers, all in whole seconds and all
// decremented by independent one-second ticks. TTL gates code entry,
// cooldown gates resends, and autoClose runs only while the popup is
// minimized after the code expired.
type countdown struct {
	ttlSeconds       int
	cooldownSeconds  int
	autoCloseSeconds int
}

// inputEnabled reports whether digits may still be entered.
func (c *countdown) inputEnabled() bool {
	return c.ttlSeconds > 0
}

// tickTTL decrements the TTL. It returns true on the tick that reaches
// zero, which is when expiry side effects fire.
func (c *countdown) tickTTL() bool {
	if c.ttlSeconds <= 0 {
		return false
	}
	c.ttlSeconds--
	return c.ttlSeconds == 0
}

// tickCooldown decrements the resend cooldown, stopping at zero.
func (c *countdown) tickCooldown() {
	if c.cooldownSeconds > 0 {
		c.cooldownSeconds--
	}
}

// tickAutoClose decrements the minimized auto-close timer. It returns
// true on the tick that reaches zero, which closes the popup.
func (c *countdown) tickAutoClose() bool {
	if c.autoCloseSeconds <= 0 {
		return false
	}
	c.autoCloseSeconds--
	return c.autoCloseSeconds == 0
}

// resetTTL installs a fresh TTL and cancels a pending auto-close.
func (c *countdown) resetTTL(seconds int) {
	c.ttlSeconds = seconds
	c.autoCloseSeconds = 0
}

// FormatSeconds renders a countdown value as m:ss for display.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
