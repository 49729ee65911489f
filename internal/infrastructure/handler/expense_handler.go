package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/damon-houk/my-expenses/internal/application/service"
	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// ExpenseHandler serves the per-user expense collection resource
type ExpenseHandler struct {
	service *service.ExpenseService
	logger  logger.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(service *service.ExpenseService, log logger.Logger) *ExpenseHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ExpenseHandler{
		service: service,
		logger:  log,
	}
}

// ListExpenses handles GET /api/{username}/expenses
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	username := mux.Vars(r)["username"]

	expenses, err := h.service.ListExpenses(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, err, requestID)
		return
	}

	h.logger.Debug("Expenses listed", logger.Fields{
		"request_id": requestID,
		"username":   username,
		"count":      len(expenses),
	})

	writeJSON(w, h.logger, http.StatusOK, expenses)
}

// ReplaceExpenses handles POST /api/{username}/expenses with body {"expenses": [...]}
func (h *ExpenseHandler) ReplaceExpenses(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	username := mux.Vars(r)["username"]

	var req struct {
		Expenses *[]entity.Expense `json:"expenses"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", logger.Fields{
			"request_id": requestID,
			"username":   username,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	if req.Expenses == nil {
		sendErrorResponse(w, h.logger, "Missing expenses",
			`The request body must contain an "expenses" array`, http.StatusBadRequest, requestID)
		return
	}

	if err := h.service.ReplaceExpenses(r.Context(), username, *req.Expenses); err != nil {
		h.handleServiceError(w, err, requestID)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ReplaceExpensesResponse{Count: len(*req.Expenses)})
}

func (h *ExpenseHandler) handleServiceError(w http.ResponseWriter, err error, requestID string) {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, entity.ErrUsernameMissing):
		sendErrorResponse(w, h.logger, "Missing username",
			"A username is required", http.StatusBadRequest, requestID)
	case errors.As(err, &validationErr):
		sendErrorResponse(w, h.logger, "Invalid expense", validationErr.Error(), http.StatusBadRequest, requestID)
	default:
		h.logger.Error("Unexpected error handling expenses", logger.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while accessing expenses", http.StatusInternalServerError, requestID)
	}
}

// RegisterRoutes registers the expense collection routes
func (h *ExpenseHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/{username}/expenses", h.ListExpenses).Methods(http.MethodGet)
	router.HandleFunc("/api/{username}/expenses", h.ReplaceExpenses).Methods(http.MethodPost)

	h.logger.Info("Expense routes registered", logger.Fields{
		"routes": []string{
			"GET /api/{username}/expenses",
			"POST /api/{username}/expenses",
		},
	})
}

// NewRouter builds the collection server router with the standard middleware chain
func NewRouter(h *ExpenseHandler, log logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware, middleware.RecoveryMiddleware(log), middleware.LoggingMiddleware(log))
	h.RegisterRoutes(router)
	return router
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", logger.Fields{"error": err.Error()})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", logger.Fields{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, log, statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}
