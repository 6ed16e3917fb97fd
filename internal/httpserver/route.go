package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	PaymentHandler *PaymentHTTP
	OrderHandler   *OrderHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	orders := v1.Group("/orders", RequireLogin(d.JWTSecret))
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders)

	payments := v1.Group("/payments")

	// The processor authenticates by signature, not by caller identity.
	payments.POST("/webhook", d.PaymentHandler.Webhook)

	user := payments.Group("", RequireLogin(d.JWTSecret))
	user.POST("", d.PaymentHandler.CreatePayment)
	user.POST("/:id/refund", d.PaymentHandler.Refund)
	user.GET("/history", d.PaymentHandler.History)

	admin := payments.Group("/admin", RequireAdmin(d.JWTSecret))
	admin.GET("", d.PaymentHandler.AdminHistory)
}
