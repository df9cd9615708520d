package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// QueryFingerprints возвращает отпечатки аффирмаций, отправленных пользователю после since.
func (s *Storage) QueryFingerprints(ctx context.Context, userID int64, since time.Time) (map[string]struct{}, error) {
	const op = "storage.QueryFingerprints"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT fingerprint
			  FROM sent_affirmations
			  WHERE user_id = $1 AND sent_at > $2`
	rows, err := s.DB.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]struct{})
	for rows.Next() {
		var fingerprint string
		if err = rows.Scan(&fingerprint); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[fingerprint] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// InsertMark дописывает отметку об отправленной аффирмации.
func (s *Storage) InsertMark(ctx context.Context, mark models.SentAffirmationMark) error {
	const op = "storage.InsertMark"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO sent_affirmations (user_id, fingerprint, sent_at)
			  VALUES ($1, $2, $3)`
	if _, err := s.DB.ExecContext(ctx, query, mark.UserID, mark.Fingerprint, mark.SentAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountMarks возвращает число отметок пользователя за всё время.
func (s *Storage) CountMarks(ctx context.Context, userID int64) (int, error) {
	const op = "storage.CountMarks"
	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_affirmations WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
