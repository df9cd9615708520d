package models

import "time"

// EntryTypeFree тип записи по умолчанию, свободный текст.
const EntryTypeFree = "free"

// JournalEntry представляет запись дневника. Запись принадлежит ровно одному пользователю
// и удаляется вместе с ним.
type JournalEntry struct {
	ID        int64
	UserID    int64
	Text      string
	EntryType string
	CreatedAt time.Time
}
