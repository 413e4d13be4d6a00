package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/thisday-app/pushgate/internal/domain/profile"
)

var _ profile.Repo = (*ProfileRepo)(nil)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

const qProfileByID = `
SELECT id, username, COALESCE(display_name, '')
FROM profiles
WHERE id = $1;`

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p profile.Profile
	if err := r.db.Pool.QueryRow(ctx, qProfileByID, id).
		Scan(&p.ID, &p.Username, &p.DisplayName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
