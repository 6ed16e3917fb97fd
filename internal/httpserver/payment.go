package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

type PaymentResponse struct {
	models.Payment
	ClientSecret string `json:"client_secret"`
}

func (h *PaymentHTTP) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_payment")

	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req transport.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_payment_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	payment, clientSecret, err := h.Svc.CreatePayment(ctx, req, userID, callerIsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("create_payment_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("create_payment_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("create_payment_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusCreated, PaymentResponse{Payment: *payment, ClientSecret: clientSecret})
}

func (h *PaymentHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.refund")

	userID, err := callerID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	payment, err := h.Svc.Refund(ctx, uint(id), userID, callerIsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("refund_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
		case errors.Is(err, service.ErrInvalidTransition):
			l.Warn("refund_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Only successful payments can be refunded")
		default:
			l.Error("refund_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := callerID(c)
	if err != nil {
		return err
	}

	payments, err := h.Svc.History(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHTTP) AdminHistory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.admin_history")

	var filter repo.PaymentFilter

	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		uid := uint(id)
		filter.UserID = &uid
	}
	if v := c.QueryParam("payment_status"); v != "" {
		filter.Status = v
	}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
		}
		filter.StartDate = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
		}
		filter.EndDate = &t
	}

	payments, err := h.Svc.AdminHistory(ctx, filter)
	if err != nil {
		l.Error("admin_history_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, payments)
}

// Webhook acknowledges everything the processor sends except a bad signature:
// replays, stale events, unknown event types and unmatched payments all get a
// 200 so the sender does not retry them forever.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	sig := c.Request().Header.Get("Stripe-Signature")

	if err := h.Svc.HandleWebhook(ctx, payload, sig); err != nil {
		switch {
		case errors.Is(err, service.ErrAuthenticity):
			l.Warn("webhook_error", "status", 400, "reason", "bad signature")
			return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
		case errors.Is(err, service.ErrValidation):
			l.Warn("webhook_error", "status", 400, "reason", "malformed body")
			return echo.NewHTTPError(http.StatusBadRequest, "malformed event")
		default:
			l.Error("webhook_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unsupported date format")
}
