package engine

import "context"

// Update is a prepared statement executed for its affected row count.
// It may be executed again after Reset.
type Update struct {
	*statement
}

// Execute runs the statement and returns the number of affected rows.
func (u *Update) Execute(ctx context.Context) (int64, error) {
	res, err := u.exec(ctx)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res, u.sql.text, u.info.Normalized())
}

// Reset clears the bound values so the statement can run again.
func (u *Update) Reset() error {
	return u.resetBindings()
}
