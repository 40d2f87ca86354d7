// Package handler implements the HTTP handlers of the score server.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/service"
)

const msgDuplicateUser = "User with this userId or email already exists"

// UserHandler handles user score endpoints.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// AllUsers handles GET /allUsers
func (h *UserHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateResponse is the body of a successful score update.
type UpdateResponse struct {
	Message string            `json:"message"`
	User    *model.UserRecord `json:"user"`
}

type duplicateResponse struct {
	Message        string `json:"message"`
	DuplicateField string `json:"duplicateField"`
}

// Update handles POST /userData/update/{userId}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var req service.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.userSvc.Upsert(r.Context(), userID, req)
	if err != nil {
		var ve *service.ValidationError
		var dup *model.DuplicateKeyError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Message)
		case errors.Is(err, service.ErrEmailInUse):
			writeError(w, http.StatusBadRequest, service.MsgEmailInUse)
		case errors.As(err, &dup):
			writeJSON(w, http.StatusBadRequest, duplicateResponse{Message: msgDuplicateUser, DuplicateField: dup.Field})
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, UpdateResponse{Message: res.Message(), User: res.User})
}

// Leaderboard handles GET /leaderboard?limit=N
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.userSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
