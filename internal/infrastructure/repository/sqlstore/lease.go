package sqlstore

import (
	"context"
	"fmt"
	"time"
)

// Claim takes the lease for key if it is free, expired, or already held by owner.
func (s *Store) Claim(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO file_leases (lease_key, owner, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (lease_key) DO UPDATE
SET owner = excluded.owner, expires_at = excluded.expires_at
WHERE file_leases.expires_at <= ? OR file_leases.owner = excluded.owner
`), key, owner, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("claim lease: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim lease rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) Release(ctx context.Context, key, owner string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM file_leases WHERE lease_key = ? AND owner = ?`), key, owner); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}
