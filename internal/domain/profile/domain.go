package profile

// Profile is the human-facing identity of the user who caused a notification.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
}

// Name returns the display name, falling back to the username when the
// profile has no display name set.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
