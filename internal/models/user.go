// Package models содержит доменные структуры дневника: пользователя,
// записи дневника и отметки об отправленных аффирмациях.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// User представляет пользователя дневника. Идентификатор назначается снаружи (Telegram ID).
type User struct {
	ID                int64      // Telegram ID пользователя
	Username          *string    // Публичный ник, если есть
	SoftName          *string    // Имя, которым бот обращается к пользователю (nil, если без имени)
	Agreed            bool       // Пользователь принял соглашение и завершил онбординг
	TrialUntil        *time.Time // Дата окончания пробного периода
	Subscribed        bool       // Признак оплаченной подписки
	SubscriptionUntil *time.Time // Дата окончания оплаченной подписки
	LastEntry         *time.Time // Время последней записи в дневник
	CreatedAt         time.Time  // Дата регистрации
}

// UserUpdate описывает частичное обновление пользователя.
// Поля со значением nil не изменяются; Clear* явно сбрасывают значение в NULL.
type UserUpdate struct {
	Agreed            *bool
	SoftName          *string
	ClearSoftName     bool
	TrialUntil        *time.Time
	Subscribed        *bool
	SubscriptionUntil *time.Time
	LastEntry         *time.Time
	ClearLastEntry    bool
}

// IsEmpty сообщает, что обновление не меняет ни одного поля.
func (u UserUpdate) IsEmpty() bool {
	return u.Agreed == nil && u.SoftName == nil && !u.ClearSoftName &&
		u.TrialUntil == nil && u.Subscribed == nil && u.SubscriptionUntil == nil &&
		u.LastEntry == nil && !u.ClearLastEntry
}

// Eligibility задаёт, кто из пользователей получает ежедневную рассылку.
type Eligibility string

const (
	// EligibilityAgreed все пользователи, принявшие соглашение.
	EligibilityAgreed Eligibility = "agreed"
	// EligibilityAccess принявшие соглашение с активным пробным периодом или подпиской.
	EligibilityAccess Eligibility = "access"
)
