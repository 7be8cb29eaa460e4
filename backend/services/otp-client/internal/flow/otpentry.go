package flow

import "strings"

const otpLength = 6

// otpEntry is the six-slot code buffer. It is a pure state machine: the
// mutating methods return true when the buffer just became complete for
// the first time since the last reset, which is the one moment the
// controller submits.
type otpEntry struct {
	slots     [otpLength]rune
	focus     int
	submitted bool
}

// typeDigit places a digit into the focused slot and advances the
// focus. The focus stays on the last slot once it reaches it, so a full
// buffer can be edited in place. Non-digit input is ignored.
func (e *otpEntry) typeDigit(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}
	e.slots[e.focus] = r
	if e.focus < otpLength-1 {
		e.focus++
	}
	return e.completeOnce()
}

// backspace clears the focused slot. On an empty slot it only steps the
// focus back; the previous digit is erased by the next backspace.
func (e *otpEntry) backspace() {
	if e.focus < otpLength && e.slots[e.focus] != 0 {
		e.slots[e.focus] = 0
		return
	}
	if e.focus > 0 {
		e.focus--
	}
}

// paste replaces the whole buffer with the pasted digits: non-digits
// are stripped, the rest is truncated to the buffer length and written
// from the first slot. The overwrite happens even when nothing usable
// was pasted, so stale digits never survive a paste. Focus lands after
// the last filled slot.
func (e *otpEntry) paste(text string) bool {
	var digits []rune
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == otpLength {
				break
			}
		}
	}
	e.slots = [otpLength]rune{}
	copy(e.slots[:], digits)
	e.focus = len(digits)
	if e.focus == otpLength {
		e.focus = otpLength - 1
	}
	return e.completeOnce()
}

// completeOnce reports a full buffer exactly once per fill.
func (e *otpEntry) completeOnce() bool {
	if e.submitted {
		return false
	}
	for _, r := range e.slots {
		if r == 0 {
			return false
		}
	}
	e.submitted = true
	return true
}

// code returns the buffered digits in order.
func (e *otpEntry) code() string {
	var b strings.Builder
	for _, r := range e.slots {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// reset clears the buffer and re-arms auto-submission.
func (e *otpEntry) reset() {
	*e = otpEntry{}
}
