package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/middleware"
)

const (
	// DefaultBaseURL is where the expense collection server listens by default
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTimeout bounds a single request when no client is supplied
	DefaultTimeout = 10 * time.Second

	expensesPathFormat = "/api/%s/expenses"
	maxErrorBodyBytes  = 512
)

// TransportError reports that a request never produced an HTTP response
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a response outside the 2xx range
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: server returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// ExpenseAPIClient talks to the per-user expense collection resource
type ExpenseAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewExpenseAPIClient creates a new client. A nil httpClient gets DefaultTimeout.
func NewExpenseAPIClient(baseURL string, httpClient *http.Client, log logger.Logger) *ExpenseAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ExpenseAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log.WithField("component", "expense_api_client"),
	}
}

func (c *ExpenseAPIClient) collectionURL(username string) string {
	return c.baseURL + fmt.Sprintf(expensesPathFormat, url.PathEscape(username))
}

// FetchExpenses reads the whole collection of a user
func (c *ExpenseAPIClient) FetchExpenses(ctx context.Context, username string) ([]entity.Expense, error) {
	const op = "fetch expenses"
	reqURL := c.collectionURL(username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	setRequestID(ctx, req)

	c.logger.Debug("Fetching expenses", logger.Fields{
		"username": username,
		"url":      reqURL,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer c.closeBody(resp)

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var expenses []entity.Expense
	if err := json.NewDecoder(resp.Body).Decode(&expenses); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	if expenses == nil {
		expenses = []entity.Expense{}
	}

	c.logger.Debug("Fetched expenses", logger.Fields{
		"username": username,
		"count":    len(expenses),
	})

	return expenses, nil
}

// ReplaceExpenses overwrites the whole collection of a user. The response body is ignored.
func (c *ExpenseAPIClient) ReplaceExpenses(ctx context.Context, username string, expenses []entity.Expense) error {
	const op = "replace expenses"
	reqURL := c.collectionURL(username)

	if expenses == nil {
		expenses = []entity.Expense{}
	}

	body, err := json.Marshal(entity.ExpenseList{Expenses: expenses})
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	setRequestID(ctx, req)

	c.logger.Debug("Replacing expenses", logger.Fields{
		"username": username,
		"url":      reqURL,
		"count":    len(expenses),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer c.closeBody(resp)

	return checkStatus(op, resp)
}

// setRequestID forwards the page request ID so both sides log the same value
func setRequestID(ctx context.Context, req *http.Request) {
	if middleware.HasRequestID(ctx) {
		req.Header.Set(middleware.RequestIDHeader, middleware.GetRequestID(ctx))
	}
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

func (c *ExpenseAPIClient) closeBody(resp *http.Response) {
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn("Error closing response body", logger.Fields{
			"error": err.Error(),
		})
	}
}
