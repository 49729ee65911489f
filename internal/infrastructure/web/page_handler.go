// Package web serves the server-rendered expense page.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/damon-houk/my-expenses/internal/application/service"
	"github.com/damon-houk/my-expenses/internal/domain/entity"
	domain "github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pagePath    = "/myexpenses"
	usernameKey = "username"
)

// Form field names
const (
	fieldName            = "name"
	fieldAmount          = "amount"
	fieldType            = "type"
	fieldShortNote       = "shortNote"
	fieldTransactionDate = "transactionDate"
)

// expenseTypes are the select options, placeholder first
var expenseTypes = append([]entity.ExpenseType{entity.TypeUnset}, entity.ExpenseTypes...)

// PageHandler renders the expense page and applies its form actions
type PageHandler struct {
	sessions *sessionRegistry
	tmpl     *template.Template
	logger   logger.Logger
}

// NewPageHandler creates a page handler whose sessions read and write through
// store. Sessions unused for sessionTTL are dropped; non-positive uses
// DefaultSessionTTL.
func NewPageHandler(store domain.ExpenseStore, sessionTTL time.Duration, log logger.Logger) (*PageHandler, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"amount": formatAmount,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	log = log.WithField("component", "page_handler")
	return &PageHandler{
		sessions: newSessionRegistry(store, sessionTTL, log),
		tmpl:     tmpl,
		logger:   log,
	}, nil
}

type typeOption struct {
	Value    entity.ExpenseType
	Selected bool
}

type pageData struct {
	Username      string
	Loaded        bool
	Notices       []domain.Notice
	Draft         draftView
	Types         []typeOption
	SubmitEnabled bool
	Expenses      []entity.Expense
}

type draftView struct {
	Name            string
	Amount          string
	ShortNote       string
	TransactionDate string
}

// ShowPage handles GET /myexpenses?username=u
func (h *PageHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireUsername(w, r)
	if !ok {
		return
	}

	// Every view refetches. A failed fetch keeps the held list and is
	// reported through the flash notifier.
	s := h.sessions.get(username)
	_ = s.syncer.Load(r.Context())

	data := h.buildPage(s, username)

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "myexpenses.html", data); err != nil {
		h.logger.Error("Failed to render page", logger.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"username":   username,
			"error":      err.Error(),
		})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) buildPage(s *session, username string) pageData {
	s.mu.Lock()
	draft := *s.draft
	s.mu.Unlock()

	types := make([]typeOption, len(expenseTypes))
	for i, t := range expenseTypes {
		types[i] = typeOption{Value: t, Selected: t == draft.Type}
	}

	return pageData{
		Username: username,
		Loaded:   s.syncer.State() != service.StateUnloaded,
		Notices:  s.flash.Drain(),
		Draft: draftView{
			Name:            draft.Name,
			Amount:          draft.AmountInput(),
			ShortNote:       draft.ShortNote,
			TransactionDate: draft.TransactionDate,
		},
		Types:         types,
		SubmitEnabled: draft.SubmitEnabled(),
		Expenses:      s.syncer.Expenses(),
	}
}

// CreateExpense handles POST /myexpenses/expenses?username=u
func (h *PageHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireUsername(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	s := h.sessions.get(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	applyForm(s.draft, r.PostForm)

	if !s.draft.SubmitEnabled() {
		s.flash.Notify(r.Context(), domain.Notice{Level: domain.NoticeError, Message: service.MsgDraftIncomplete})
		h.redirect(w, r, username)
		return
	}

	if _, err := s.syncer.Create(r.Context(), s.draft); err != nil {
		// Store failures have already been reported by the synchronizer
		if errors.Is(err, service.ErrNotLoaded) {
			s.flash.Notify(r.Context(), domain.Notice{Level: domain.NoticeError, Message: service.MsgCreateFailed})
		}
		h.logger.Warn("Expense not created", logger.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"username":   username,
			"error":      err.Error(),
		})
	}

	h.redirect(w, r, username)
}

// DeleteExpense handles POST /myexpenses/expenses/{id}/delete?username=u
func (h *PageHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireUsername(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	s := h.sessions.get(username)

	if err := s.syncer.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotLoaded) || errors.Is(err, service.ErrExpenseNotFound) {
			s.flash.Notify(r.Context(), domain.Notice{Level: domain.NoticeError, Message: service.MsgDeleteFailed})
		}
		h.logger.Warn("Expense not deleted", logger.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"username":   username,
			"id":         id,
			"error":      err.Error(),
		})
	}

	h.redirect(w, r, username)
}

// Reload handles POST /myexpenses/reload?username=u
func (h *PageHandler) Reload(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireUsername(w, r)
	if !ok {
		return
	}

	s := h.sessions.get(username)
	_ = s.syncer.Load(r.Context())

	h.redirect(w, r, username)
}

// RegisterRoutes registers the page routes
func (h *PageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(pagePath, h.ShowPage).Methods(http.MethodGet)
	router.HandleFunc(pagePath+"/expenses", h.CreateExpense).Methods(http.MethodPost)
	router.HandleFunc(pagePath+"/expenses/{id}/delete", h.DeleteExpense).Methods(http.MethodPost)
	router.HandleFunc(pagePath+"/reload", h.Reload).Methods(http.MethodPost)

	h.logger.Info("Page routes registered", logger.Fields{
		"routes": []string{
			"GET /myexpenses",
			"POST /myexpenses/expenses",
			"POST /myexpenses/expenses/{id}/delete",
			"POST /myexpenses/reload",
		},
	})
}

// NewRouter builds the page router with the standard middleware chain
func NewRouter(h *PageHandler, log logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware, middleware.RecoveryMiddleware(log), middleware.LoggingMiddleware(log))
	h.RegisterRoutes(router)
	return router
}

func (h *PageHandler) requireUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	// Used exactly as given
	username := r.URL.Query().Get(usernameKey)
	if username == "" {
		h.logger.Warn("Request without username", logger.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"path":       r.URL.Path,
		})
		http.Error(w, entity.ErrUsernameMissing.Error(), http.StatusBadRequest)
		return "", false
	}
	return username, true
}

func (h *PageHandler) redirect(w http.ResponseWriter, r *http.Request, username string) {
	http.Redirect(w, r, pagePath+"?"+usernameQuery(username), http.StatusSeeOther)
}

// applyForm copies the submitted values into draft. An unknown type resets the select.
func applyForm(draft *entity.Draft, form url.Values) {
	draft.SetName(strings.TrimSpace(form.Get(fieldName)))

	if raw := strings.TrimSpace(form.Get(fieldAmount)); raw == "" {
		draft.SetAmount(0)
	} else {
		draft.SetAmountInput(raw)
	}

	t := entity.ExpenseType(form.Get(fieldType))
	if !t.Valid() {
		t = entity.TypeUnset
	}
	draft.SetType(t)

	draft.SetShortNote(strings.TrimSpace(form.Get(fieldShortNote)))
	draft.SetTransactionDate(strings.TrimSpace(form.Get(fieldTransactionDate)))
}

func usernameQuery(username string) string {
	return url.Values{usernameKey: {username}}.Encode()
}

func formatAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
