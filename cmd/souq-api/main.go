// README: Entry point; loads config, wires services and runs the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"souq/internal/config"
	httptransport "souq/internal/http"
	"souq/internal/infra"
	"souq/internal/maps"
	"souq/internal/modules/account"
	"souq/internal/modules/catalog"
	"souq/internal/modules/location"
	"souq/internal/modules/matching"
	"souq/internal/modules/order"
)

func main() {
	log := infra.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer dbPool.Close()

	if err := infra.Migrate(cfg.DB.DSN); err != nil {
		log.WithError(err).Fatal("apply migrations")
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	tokens := account.NewTokenIssuer(cfg.JWT.Secret)
	accountSvc := account.NewService(account.NewStore(dbPool), tokens)

	catalogStore := catalog.NewStore(dbPool)
	catalogSvc := catalog.NewService(catalogStore)

	matchingSvc := matching.NewService(matching.NewStore(dbPool), cfg.Delivery)
	locationSvc := location.NewService(location.NewStore(dbPool, redisClient), cfg.Delivery)

	var geocoder order.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			log.WithError(err).Fatal("init maps client")
		}
		geocoder = g
	} else {
		log.Warn("SOUQ_MAPS_API_KEY not set; order addresses will omit country/city")
	}

	orderSvc := order.NewService(order.NewStore(dbPool), catalogStore, matchingSvc, geocoder, cfg.Delivery, log)

	handler := httptransport.NewRouter(log, tokens, accountSvc, catalogSvc, orderSvc, locationSvc)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server stopped")
	}
}
