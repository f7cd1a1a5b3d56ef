package authority

// RedeemBetaCodeRequest тело запроса активации бета-кода.
type RedeemBetaCodeRequest struct {
	Code   string `json:"code"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RedeemBetaCodeResponse ответ на активацию бета-кода.
type RedeemBetaCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StartTrialRequest тело запроса запуска триала.
type StartTrialRequest struct {
	UserID string `json:"user_id"`
}

// StartTrialResponse ответ на запуск триала.
type StartTrialResponse struct {
	Success       bool   `json:"success"`
	DaysRemaining *int   `json:"daysRemaining,omitempty"`
	Message       string `json:"message,omitempty"`
}

// CheckoutRequest тело запроса создания платёжной сессии.
type CheckoutRequest struct {
	PlanID     string `json:"plan_id"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	CouponID   string `json:"coupon_id,omitempty"`
}

// CheckoutResponse ответ с адресом страницы оплаты.
type CheckoutResponse struct {
	URL string `json:"url"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
