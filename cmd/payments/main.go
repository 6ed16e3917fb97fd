package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/online_cinema/internal/config"
	"github.com/Skotchmaster/online_cinema/internal/gateway"
	"github.com/Skotchmaster/online_cinema/internal/httpserver"
	"github.com/Skotchmaster/online_cinema/internal/logging"
	loggingmw "github.com/Skotchmaster/online_cinema/internal/middleware/logging"
	"github.com/Skotchmaster/online_cinema/internal/notifications"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/service"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("Ошибка инициализации БД: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	notifier := notifications.NewKafkaNotifier(
		[]string{configuration.KAFKA_ADDRESS},
		configuration.PAYMENT_EVENTS_TOPIC,
	)

	gw := gateway.NewStripeGateway(configuration.STRIPE_SECRET_KEY, configuration.STRIPE_WEBHOOK_SECRET)

	r := &repo.GormRepo{DB: db}
	paymentSvc := &service.PaymentService{Repo: r, Gateway: gw, Notifier: notifier}
	orderSvc := &service.OrderService{Repo: r}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
		JWTSecret:      []byte(configuration.JWT_SECRET),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.SERVER_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := notifier.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
