package models

import "time"

// SentAffirmationMark хранит отметку о том, что аффирмация с данным отпечатком
// была отправлена пользователю. Журнал только дописывается.
type SentAffirmationMark struct {
	UserID      int64
	Fingerprint string
	SentAt      time.Time
}

// AffirmationMessage сообщение для очереди доставки.
type AffirmationMessage struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}
