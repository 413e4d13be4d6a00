package device

import "context"

// Repo reads the device-token directory. The push pipeline never writes it:
// registration and revocation belong to the mobile client's session flow.
type Repo interface {
	ListByUser(ctx context.Context, userID, platform string) ([]Endpoint, error)
}
