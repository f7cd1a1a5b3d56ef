package cache

// AccessKey ключ последней разрешённой записи о доступе пользователя.
func AccessKey(userID string) string {
	return "access:" + userID
}

// ReverseTrialStartKey ключ метки старта локального обратного триала.
func ReverseTrialStartKey(userID string) string {
	return "reverse_trial_start:" + userID
}

// BetaCouponKey ключ купона бета-тестера, который прикладывается к оплате.
func BetaCouponKey(userID string) string {
	return "beta_coupon:" + userID
}
