package models

// Profile is the user's public profile.
type Profile struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// ProfileInput is the request body for updating a profile.
// Omitted fields are left unchanged.
type ProfileInput struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Location  *string `json:"location,omitempty" validate:"omitempty,max=200"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url,max=500"`
}

// Dashboard is the signed-in user's home view.
type Dashboard struct {
	Profile     Profile   `json:"profile"`
	Stats       TripStats `json:"stats"`
	RecentTrips []Trip    `json:"recentTrips"`
}
