// Package api exposes the partitioning pipeline over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partition-service/pkg/metrics"
)

// SetupRoutes registers the API endpoints on router.
func SetupRoutes(router *mux.Router, handlers *Handlers, reg *metrics.Registry) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/partitions", handlers.CreatePartitions).Methods("POST")
	api.HandleFunc("/strategies", handlers.ListStrategies).Methods("GET")
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	router.Handle("/metrics", reg.Handler()).Methods("GET")
}

// NewRouter builds the complete handler: routes, middleware and CORS.
func NewRouter(handlers *Handlers, reg *metrics.Registry, allowedOrigins []string, logger zerolog.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware(logger))
	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)
	router.Use(MetricsMiddleware(reg))

	SetupRoutes(router, handlers, reg)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return c.Handler(router)
}
