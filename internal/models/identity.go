package models

// Identity данные пользователя, которые отдаёт провайдер идентификации.
// Пустой UserID означает, что пользователь не вошёл в систему.
type Identity struct {
	UserID  string
	Email   string
	IsGuest bool
}

// Anonymous сообщает, что идентификатор пользователя отсутствует.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// RedeemResult результат активации бета-кода.
type RedeemResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Access  *AccessRecord `json:"access,omitempty"`
}

// TrialResult результат запуска триала.
type TrialResult struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	DaysRemaining *int          `json:"daysRemaining,omitempty"`
	Access        *AccessRecord `json:"access,omitempty"`
}
