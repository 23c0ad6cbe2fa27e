package chain

import "strings"

// rejectionMarkers are the substrings and codes that wallet providers emit
// when the user declines a transaction. The set is a heuristic accumulated
// across providers; matching is case-insensitive.
var rejectionMarkers = []string{
	"user rejected",
	"user denied",
	"user cancelled",
	"user canceled",
	"rejected by user",
	"request rejected",
	"action_rejected",
	"code 4001",
	"code=4001",
}

// IsUserRejected reports whether err looks like an intentional user
// rejection of a transaction rather than a failure. Callers drop these
// silently instead of surfacing an error banner.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
