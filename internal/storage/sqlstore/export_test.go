package sqlstore

import "context"

// Truncate empties every table. Tests against a shared postgres database
// use it between cases.
func Truncate(ctx context.Context, d *DB) error {
	_, err := d.db.ExecContext(ctx, `TRUNCATE users_books, users, books`)
	return err
}
