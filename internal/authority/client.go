// Package authority реализует HTTP-клиент внешнего сервиса прав доступа,
// который считается источником истины, когда он доступен.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

const maxErrorBody = 64 << 10

// Client клиент сервиса прав доступа.
type Client struct {
	apiURL     string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient создаёт клиент. timeout ограничивает каждый запрос целиком;
// его истечение считается недоступностью сервиса.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}
	return req, nil
}

// do выполняет запрос и декодирует успешный ответ в out.
// Сетевые ошибки и таймауты оборачиваются в ErrUnreachable, ответы не-2xx в RejectedError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case IsUnreachable(err):
			outcome = metrics.OutcomeUnreachable
		case err != nil:
			outcome = metrics.OutcomeRejected
		}
		metrics.AuthorityRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, rejection(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil || !malformedBody(err) {
			return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
		}
		return fmt.Errorf("%s: %w", op, &RejectedError{StatusCode: resp.StatusCode, Message: "invalid response body"})
	}
	return nil
}

// malformedBody отличает тело, которое пришло целиком, но не разбирается,
// от обрыва соединения во время чтения.
func malformedBody(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF)
}

func rejection(resp *http.Response) *RejectedError {
	rejected := &RejectedError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return rejected
	}
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			rejected.Message = body.Message
		case body.Error != "":
			rejected.Message = body.Error
		}
	}
	return rejected
}

// GetAccess запрашивает права доступа пользователя: GET /access/{userId}.
func (c *Client) GetAccess(ctx context.Context, userID string) (*models.AccessRecord, error) {
	const op = "authority.GetAccess"

	var rec models.AccessRecord
	if err := c.do(ctx, op, http.MethodGet, "/access/"+url.PathEscape(userID), nil, &rec); err != nil {
		return nil, err
	}
	if !rec.AccessType.Valid() {
		return nil, fmt.Errorf("%s: %w", op, &RejectedError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("unknown access type %q", rec.AccessType),
		})
	}
	rec.Provenance = models.ProvenanceAuthority
	return &rec, nil
}

// RedeemBetaCode активирует бета-код: POST /redeem-beta-code.
func (c *Client) RedeemBetaCode(ctx context.Context, reqParams RedeemBetaCodeRequest) (*RedeemBetaCodeResponse, error) {
	const op = "authority.RedeemBetaCode"

	var resp RedeemBetaCodeResponse
	if err := c.do(ctx, op, http.MethodPost, "/redeem-beta-code", reqParams, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartTrial запускает триал: POST /start-trial.
func (c *Client) StartTrial(ctx context.Context, reqParams StartTrialRequest) (*StartTrialResponse, error) {
	const op = "authority.StartTrial"

	var resp StartTrialResponse
	if err := c.do(ctx, op, http.MethodPost, "/start-trial", reqParams, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCheckoutSession создаёт платёжную сессию: POST /create-checkout-session.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CheckoutRequest) (*CheckoutResponse, error) {
	const op = "authority.CreateCheckoutSession"

	var resp CheckoutResponse
	if err := c.do(ctx, op, http.MethodPost, "/create-checkout-session", reqParams, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, &RejectedError{StatusCode: http.StatusOK, Message: "empty checkout url"})
	}
	return &resp, nil
}
