package flow

// PopupState is the OTP popup's presentation state. CLOSED destroys the
// entry session; MINIMIZED keeps it alive in the background, which is
// the only state where the expired-code auto-close timer runs.
type PopupState int

const (
	PopupClosed PopupState = iota
	PopupOpen
	PopupMinimized
)

func (p PopupState) String() string {
	switch p {
	case PopupOpen:
		return "OPEN"
	case PopupMinimized:
		return "MINIMIZED"
	default:
		return "CLOSED"
	}
}
