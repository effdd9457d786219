package models

// AdminDashboard aggregates platform-wide statistics.
type AdminDashboard struct {
	Users          UserCounts      `json:"users"`
	Itineraries    ItineraryCounts `json:"itineraries"`
	RecentActivity []Trip          `json:"recentActivity"`
	TopUsers       []TopUser       `json:"topUsers"`
}

// UserCounts breaks accounts down by state.
type UserCounts struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Suspended    int `json:"suspended"`
	Admins       int `json:"admins"`
	NewThisMonth int `json:"newThisMonth"`
}

// ItineraryCounts breaks saved trips down by status.
type ItineraryCounts struct {
	Total       int     `json:"total"`
	Draft       int     `json:"draft"`
	Active      int     `json:"active"`
	Upcoming    int     `json:"upcoming"`
	Completed   int     `json:"completed"`
	Flagged     int     `json:"flagged"`
	TotalBudget float64 `json:"totalBudget"`
	AvgBudget   float64 `json:"avgBudget"`
}

// TopUser ranks a user by number of saved trips.
type TopUser struct {
	UserID     string  `json:"userId"`
	Email      string  `json:"email"`
	TotalTrips int     `json:"totalTrips"`
	TotalSpent float64 `json:"totalSpent"`
}

// AdminUser is an account with its profile, as seen by administrators.
type AdminUser struct {
	Account
	Profile *Profile `json:"profile,omitempty"`
}

// AdminUserDetail is one account with everything it owns.
type AdminUserDetail struct {
	User  AdminUser `json:"user"`
	Trips []Trip    `json:"trips"`
	Stats TripStats `json:"stats"`
}

// PagedUsers is a page of accounts.
type PagedUsers struct {
	Items []AdminUser `json:"items"`
	Meta  PageMeta    `json:"meta"`
}

// UserStatusRequest is the request body for suspending or reactivating a user.
type UserStatusRequest struct {
	Status string `json:"status"`
}
