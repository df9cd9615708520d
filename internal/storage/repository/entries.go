package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// InsertEntry сохраняет запись дневника и обновляет last_entry пользователя
// в одной транзакции. Возвращает ID записи.
func (s *Storage) InsertEntry(ctx context.Context, entry models.JournalEntry) (int64, error) {
	const op = "storage.InsertEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if entry.EntryType == "" {
		entry.EntryType = models.EntryTypeFree
	}

	var newID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO entries (user_id, text, entry_type, created_at)
				  VALUES ($1, $2, $3, $4)
				  RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			entry.UserID, entry.Text, entry.EntryType, entry.CreatedAt).Scan(&newID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE users SET last_entry = $1 WHERE user_id = $2`,
			entry.CreatedAt, entry.UserID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListEntries возвращает записи пользователя в порядке создания.
func (s *Storage) ListEntries(ctx context.Context, userID int64) ([]*models.JournalEntry, error) {
	const op = "storage.ListEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, text, entry_type, created_at
			  FROM entries
			  WHERE user_id = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err = rows.Scan(&e.ID, &e.UserID, &e.Text, &e.EntryType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteEntries удаляет все записи пользователя и возвращает их количество.
func (s *Storage) DeleteEntries(ctx context.Context, userID int64) (int, error) {
	const op = "storage.DeleteEntries"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	count, err := deleteEntries(ctx, s.DB, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// WipeJournal удаляет записи пользователя и сбрасывает soft_name и last_entry.
// Сам пользователь и журнал аффирмаций остаются.
func (s *Storage) WipeJournal(ctx context.Context, userID int64) (int, error) {
	const op = "storage.WipeJournal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if count, err = deleteEntries(ctx, tx, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET soft_name = NULL, last_entry = NULL WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func deleteEntries(ctx context.Context, q querier, userID int64) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}
