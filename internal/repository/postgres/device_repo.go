package postgres

import (
	"context"
	"fmt"

	"github.com/thisday-app/pushgate/internal/domain/device"
)

var _ device.Repo = (*DeviceRepo)(nil)

// DeviceRepo reads the device-token directory. Rows are written by the
// mobile client's registration flow; the push pipeline only lists them.
type DeviceRepo struct {
	db *DB
}

func NewDeviceRepo(db *DB) *DeviceRepo { return &DeviceRepo{db: db} }

const qDevicesByUser = `
SELECT token, platform
FROM device_tokens
WHERE user_id = $1 AND platform = $2;`

func (r *DeviceRepo) ListByUser(ctx context.Context, userID, platform string) ([]device.Endpoint, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qDevicesByUser, userID, platform)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	var out []device.Endpoint
	for rows.Next() {
		var ep device.Endpoint
		if err := rows.Scan(&ep.Token, &ep.Platform); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
