package clients

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

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
)

// APIError is a non-2xx answer from the ticketing API.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// APIClient talks to the external ticketing and payment API. The caller's
// bearer token and request id are forwarded from the context.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) GetSchedules(ctx context.Context) ([]models.Schedule, error) {
	body, err := c.do(ctx, "get_schedules", http.MethodGet, "/schedule/all", nil, nil)
	if err != nil {
		return nil, mapError(err)
	}
	list, err := decodeList[wireSchedule](body, "schedules")
	if err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	out := make([]models.Schedule, 0, len(list))
	for _, w := range list {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (c *APIClient) GetBookedSeats(ctx context.Context, scheduleID string) ([]int, error) {
	path := "/booking/booked-seats/" + url.PathEscape(scheduleID)
	body, err := c.do(ctx, "get_booked_seats", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, mapError(err)
	}
	var resp struct {
		BookedSeats []int `json:"bookedSeats"`
	}
	if len(bytes.TrimSpace(body)) > 0 && bytes.TrimSpace(body)[0] == '[' {
		err = json.Unmarshal(body, &resp.BookedSeats)
	} else {
		err = json.Unmarshal(body, &resp)
	}
	if err != nil {
		return nil, fmt.Errorf("decode booked seats: %w", err)
	}
	return resp.BookedSeats, nil
}

// CreateBooking books one seat. A 409 answer is reported as a
// StaleAvailabilityError for that seat.
func (c *APIClient) CreateBooking(ctx context.Context, req models.BookingRequest) (models.ConfirmedBooking, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}
	body, err := c.do(ctx, "create_booking", http.MethodPost, "/booking/create", req, headers)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return models.ConfirmedBooking{}, domain.StaleAvailabilityError{SeatNumber: req.SeatNumber, Msg: apiErr.Message, Err: err}
		}
		return models.ConfirmedBooking{}, mapError(err)
	}

	var env struct {
		Booking *wireBooking `json:"booking"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return models.ConfirmedBooking{}, fmt.Errorf("decode booking: %w", err)
	}
	var w wireBooking
	if env.Booking != nil {
		w = *env.Booking
	} else if err := json.Unmarshal(body, &w); err != nil {
		return models.ConfirmedBooking{}, fmt.Errorf("decode booking: %w", err)
	}
	b := w.toModel()
	if b.ScheduleRef == "" {
		b.ScheduleRef = req.ScheduleRef
	}
	if b.TrainRef == "" {
		b.TrainRef = req.TrainRef
	}
	if b.SeatNumber == 0 {
		b.SeatNumber = req.SeatNumber
	}
	if b.PassengerName == "" {
		b.PassengerName = req.PassengerName
	}
	return b, nil
}

func (c *APIClient) CancelBooking(ctx context.Context, bookingID string) error {
	path := "/booking/cancel/" + url.PathEscape(bookingID)
	if _, err := c.do(ctx, "cancel_booking", http.MethodPost, path, nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *APIClient) ListUserBookings(ctx context.Context) ([]models.ConfirmedBooking, error) {
	body, err := c.do(ctx, "list_user_bookings", http.MethodGet, "/booking/user", nil, nil)
	if err != nil {
		return nil, mapError(err)
	}
	list, err := decodeList[wireBooking](body, "bookings")
	if err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	out := make([]models.ConfirmedBooking, 0, len(list))
	for _, w := range list {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (c *APIClient) CreatePaymentSession(ctx context.Context, summary models.PaymentSummary) (models.PaymentSession, error) {
	body, err := c.do(ctx, "create_payment_session", http.MethodPost, "/payments/create-checkout-session", summary, nil)
	if err != nil {
		return models.PaymentSession{}, mapError(err)
	}
	var out models.PaymentSession
	if err := json.Unmarshal(body, &out); err != nil {
		return models.PaymentSession{}, fmt.Errorf("decode payment session: %w", err)
	}
	if out.RedirectURL == "" {
		return models.PaymentSession{}, &APIError{Operation: "create_payment_session", StatusCode: http.StatusBadGateway, Message: "payment provider returned no redirect url"}
	}
	return out, nil
}

func (c *APIClient) VerifyPaymentSession(ctx context.Context, sessionID string) (models.PaymentVerification, error) {
	path := "/payments/verify-session?session_id=" + url.QueryEscape(sessionID)
	body, err := c.do(ctx, "verify_payment_session", http.MethodGet, path, nil, nil)
	if err != nil {
		return models.PaymentVerification{}, mapError(err)
	}
	var w wireVerification
	if err := json.Unmarshal(body, &w); err != nil {
		return models.PaymentVerification{}, fmt.Errorf("decode verification: %w", err)
	}
	return w.toModel(), nil
}

func (c *APIClient) do(ctx context.Context, op, method, path string, payload any, headers map[string]string) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.APIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(op, "transport_error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.APIRequests.WithLabelValues(op, "transport_error").Inc()
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APIRequests.WithLabelValues(op, "error").Inc()
		return nil, &APIError{Operation: op, StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
	metrics.APIRequests.WithLabelValues(op, "ok").Inc()
	return body, nil
}

// errorMessage prefers the provider's message and falls back to the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "request failed"
}

func mapError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return domain.NotFoundError{Resource: strings.TrimPrefix(strings.TrimPrefix(apiErr.Operation, "get_"), "list_"), Err: err}
	case http.StatusConflict:
		return domain.ConflictError{Msg: apiErr.Message, Err: err}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ValidationError{Msg: apiErr.Message, Err: err}
	default:
		return err
	}
}
