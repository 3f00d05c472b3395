package eligibility

import "time"

// InviteStats partitions a user's referred accounts into active and pending.
// Active + Pending == Total by construction.
type InviteStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Pending int64 `json:"pending"`
}

// InviteActive applies the activity policy to a single referred account.
func InviteActive(registeredAt time.Time, now time.Time) bool {
	return now.Sub(registeredAt) >= ActiveInviteMinAge
}

// ComputeInviteStats classifies referred users by registration time.
func ComputeInviteStats(registeredAt []time.Time, now time.Time) InviteStats {
	stats := InviteStats{Total: int64(len(registeredAt))}
	for _, reg := range registeredAt {
		if InviteActive(reg, now) {
			stats.Active++
		}
	}
	stats.Pending = stats.Total - stats.Active
	return stats
}
