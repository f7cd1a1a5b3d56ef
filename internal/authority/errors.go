package authority

import (
	"errors"
	"fmt"
)

// ErrUnreachable сервис прав доступа недоступен: сетевая ошибка или таймаут.
var ErrUnreachable = errors.New("entitlement authority unreachable")

// RejectedError сервис ответил, но отказал или вернул некорректный ответ.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("entitlement authority rejected request: status %d: %s", e.StatusCode, e.Message)
}

// IsUnreachable сообщает, что ошибка вызвана недоступностью сервиса.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// RejectionMessage возвращает текст отказа сервиса, если err является RejectedError.
func RejectionMessage(err error) (string, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message, true
	}
	return "", false
}
