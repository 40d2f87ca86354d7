// Package rest wires the score server routes.
package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/speedtype/internal/service"
	"github.com/verte-zerg/speedtype/internal/transport/rest/handler"
	"github.com/verte-zerg/speedtype/internal/transport/rest/middleware"
)

// DefaultPrefix is the path prefix of the API routes.
const DefaultPrefix = "/api"

// Container holds all dependencies for the router.
type Container struct {
	UserService    *service.UserService
	Prefix         string
	AllowedOrigins string
	// JWTSecret enables bearer auth on the update route when non-empty.
	JWTSecret []byte
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	userHandler := handler.NewUserHandler(c.UserService)

	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(c.AllowedOrigins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r
	if prefix := normalizePrefix(c.Prefix); prefix != "" {
		api = r.PathPrefix(prefix).Subrouter()
	}

	api.HandleFunc("/allUsers", userHandler.AllUsers).Methods("GET", "OPTIONS")
	api.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods("GET", "OPTIONS")

	updates := api.NewRoute().Subrouter()
	if len(c.JWTSecret) > 0 {
		updates.Use(middleware.NewAuthMiddleware(c.JWTSecret).RequireUser)
	}
	updates.HandleFunc("/userData/update/{userId}", userHandler.Update).Methods("POST", "OPTIONS")

	return r
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
