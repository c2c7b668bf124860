package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

const accountColumns = `id, user_id, platform, platform_user_id, username, avatar_url, access_token, refresh_token, token_expires_at, status, created_at, updated_at`

type AccountRepository struct {
	db      *sql.DB
	dialect Dialect
	clock   utils.Clock
}

func NewAccountRepository(db *sql.DB, dialect Dialect, clock utils.Clock) *AccountRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AccountRepository{db: db, dialect: dialect, clock: clock}
}

func scanAccount(row rowScanner) (*model.Account, error) {
	a := &model.Account{}
	var avatar sql.NullString
	var expires sql.NullTime
	var status string
	if err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformUserID, &a.Username, &avatar, &a.AccessToken, &a.RefreshToken, &expires, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.AvatarURL = stringPtr(avatar)
	a.TokenExpiresAt = timePtr(expires)
	a.Status = model.AccountStatus(status)
	return a, nil
}

func (r *AccountRepository) list(ctx context.Context, q string, args ...interface{}) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*model.Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id=? ORDER BY created_at DESC`, userID)
}

func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id IN (`+Placeholders(len(ids))+`)`, stringArgs(ids)...)
}

func (r *AccountRepository) GetByID(ctx context.Context, userID, id string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+accountColumns+` FROM accounts WHERE id=? AND user_id=?`), id, userID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", model.ErrNotFound, id)
	}
	return a, err
}

func (r *AccountRepository) FindByPlatformUser(ctx context.Context, userID, platform, platformUserID string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+accountColumns+` FROM accounts WHERE user_id=? AND platform=? AND platform_user_id=?`), userID, platform, platformUserID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	now := r.clock.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`INSERT INTO accounts (`+accountColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`),
		a.ID, a.UserID, a.Platform, a.PlatformUserID, a.Username, nullString(a.AvatarURL), a.AccessToken, a.RefreshToken,
		nullTime(a.TokenExpiresAt), string(a.Status), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *AccountRepository) Update(ctx context.Context, a *model.Account) error {
	a.UpdatedAt = r.clock.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE accounts SET username=?, avatar_url=?, access_token=?, refresh_token=?, token_expires_at=?, status=?, updated_at=? WHERE id=?`),
		a.Username, nullString(a.AvatarURL), a.AccessToken, a.RefreshToken, nullTime(a.TokenExpiresAt), string(a.Status), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "account", a.ID)
}

func (r *AccountRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM accounts WHERE id=? AND user_id=?`), id, userID)
	if err != nil {
		return err
	}
	return expectRow(res, "account", id)
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, kind, id)
	}
	return nil
}

var _ repository.IAccount = (*AccountRepository)(nil)
