package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

const userColumns = `user_id, username, soft_name, agreed, trial_until,
			      subscribed, subscription_until, last_entry, created_at`

// UpsertUser регистрирует пользователя. Повторный вызов обновляет только username,
// остальные поля (включая пробный период) сохраняются.
func (s *Storage) UpsertUser(ctx context.Context, userID int64, username *string, trialUntil time.Time) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, username, trial_until)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id) DO UPDATE
			  SET username = EXCLUDED.username`
	if _, err := s.DB.ExecContext(ctx, query, userID, username, trialUntil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его ID или ErrUserNotFound.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE user_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUser применяет частичное обновление полей пользователя.
func (s *Storage) UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if upd.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Agreed != nil {
		set("agreed", *upd.Agreed)
	}
	switch {
	case upd.ClearSoftName:
		sets = append(sets, "soft_name = NULL")
	case upd.SoftName != nil:
		set("soft_name", *upd.SoftName)
	}
	if upd.TrialUntil != nil {
		set("trial_until", *upd.TrialUntil)
	}
	if upd.Subscribed != nil {
		set("subscribed", *upd.Subscribed)
	}
	if upd.SubscriptionUntil != nil {
		set("subscription_until", *upd.SubscriptionUntil)
	}
	switch {
	case upd.ClearLastEntry:
		sets = append(sets, "last_entry = NULL")
	case upd.LastEntry != nil:
		set("last_entry", *upd.LastEntry)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE user_id = $%d`, strings.Join(sets, ", "), len(args))
	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ListEligibleUserIDs возвращает ID пользователей, которым положена ежедневная рассылка.
func (s *Storage) ListEligibleUserIDs(ctx context.Context, eligibility models.Eligibility, now time.Time) ([]int64, error) {
	const op = "storage.ListEligibleUserIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		query string
		args  []any
	)
	switch eligibility {
	case models.EligibilityAgreed:
		query = `SELECT user_id FROM users WHERE agreed`
	case models.EligibilityAccess:
		query = `SELECT user_id FROM users
			  WHERE agreed
			    AND (trial_until > $1
			         OR (subscribed AND subscription_until > $1))`
		args = append(args, now)
	default:
		return nil, fmt.Errorf("%s: unknown eligibility %q", op, eligibility)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var username, softName sql.NullString
	var trialUntil, subscriptionUntil, lastEntry sql.NullTime
	if err := row.Scan(&u.ID, &username, &softName, &u.Agreed, &trialUntil,
		&u.Subscribed, &subscriptionUntil, &lastEntry, &u.CreatedAt); err != nil {
		return nil, err
	}
	if username.Valid {
		u.Username = &username.String
	}
	if softName.Valid {
		u.SoftName = &softName.String
	}
	if trialUntil.Valid {
		u.TrialUntil = &trialUntil.Time
	}
	if subscriptionUntil.Valid {
		u.SubscriptionUntil = &subscriptionUntil.Time
	}
	if lastEntry.Valid {
		u.LastEntry = &lastEntry.Time
	}
	return &u, nil
}
