package registry

// Accessible is the caller-facing read gate: a card is readable when it is
// public, when the caller owns the agent record, or when the caller holds an
// entitlement for it. Denial is a return value, never an error.
func Accessible(public bool, publisherID, callerClientID string, entitled bool) bool {
	if public {
		return true
	}
	if callerClientID != "" && callerClientID == publisherID {
		return true
	}
	return entitled
}

// NormalizePage clamps pagination parameters to sane bounds.
func NormalizePage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
