package models

// DashboardStats aggregates reservation counts for a bounded dashboard view.
type DashboardStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// DashboardSnapshot is one recomputed live view: the reservations visible to
// a role/owner plus their aggregate stats.
type DashboardSnapshot struct {
	Bookings []Reservation  `json:"bookings"`
	Stats    DashboardStats `json:"stats"`
}

// ComputeStats derives the aggregate counters from an authoritative listing.
// Recomputing from the store (rather than applying deltas) keeps dashboards
// idempotent under duplicate event delivery.
func ComputeStats(bookings []Reservation) DashboardStats {
	var s DashboardStats
	s.Total = len(bookings)
	for _, b := range bookings {
		switch b.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}
