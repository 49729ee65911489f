package handler

import "github.com/damon-houk/my-expenses/internal/domain/entity"

// ReplaceExpensesRequest represents the request body that replaces a collection
type ReplaceExpensesRequest = entity.ExpenseList

// ReplaceExpensesResponse acknowledges a replaced collection
type ReplaceExpensesResponse struct {
	Count int `json:"count"`
}

// ErrorResponse represents the body of every non-2xx response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description"`
	RequestID   string `json:"request_id"`
}
