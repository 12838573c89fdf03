// Package server exposes the selection engine over HTTP.
package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"accountbot/internal/config"
	"accountbot/internal/domain"
	"accountbot/internal/notify"
	"accountbot/internal/selection"
	"accountbot/internal/storage/sqlite"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo     *echo.Echo
	engine   *selection.Engine
	db       *sql.DB
	reviewer *notify.Reviewer
	addr     string
}

func New(cfg config.Config, db *sql.DB, engine *selection.Engine, reviewer *notify.Reviewer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Printf("http %s %s status=%d duration=%s request_id=%s",
				c.Request().Method,
				c.Request().RequestURI,
				c.Response().Status,
				time.Since(start).Round(time.Millisecond),
				c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		engine:   engine,
		db:       db,
		reviewer: reviewer,
		addr:     cfg.ListenAddr,
	}

	e.GET("/health", s.handleHealth)
	v1 := e.Group("/api/v1")
	v1.POST("/select", s.handleSelect)
	v1.GET("/selections", s.handleSelections)

	return s
}

type issuePayload struct {
	Key         string `json:"key"`
	ProjectKey  string `json:"project_key"`
	ProjectName string `json:"project_name"`
	Summary     string `json:"summary"`
	IssueType   string `json:"issue_type"`
	Status      string `json:"status"`
}

type accountPayload struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type usagePayload struct {
	IssueKey   string `json:"issue_key"`
	AccountKey string `json:"account_key"`
}

type entryPayload struct {
	IssueKey    string    `json:"issue_key"`
	ProjectKey  string    `json:"project_key"`
	AccountKey  string    `json:"account_key"`
	Description string    `json:"description"`
	LoggedAt    time.Time `json:"logged_at"`
	Seconds     int       `json:"seconds"`
}

// selectRequest is the caller contract: a work item, the pre-filtered
// candidate accounts, and an optional selection context. When usage_log or
// time_entries are omitted, the stored history is used instead.
type selectRequest struct {
	Issue       issuePayload     `json:"issue"`
	Accounts    []accountPayload `json:"accounts"`
	Description string           `json:"description"`
	UsageLog    []usagePayload   `json:"usage_log"`
	TimeEntries []entryPayload   `json:"time_entries"`
}

type suggestionPayload struct {
	Account accountPayload `json:"account"`
	Score   float64        `json:"score"`
	Reason  string         `json:"reason"`
}

type selectResponse struct {
	Account     *accountPayload     `json:"account"`
	Confidence  float64             `json:"confidence"`
	Reason      string              `json:"reason"`
	Method      string              `json:"method"`
	Suggestions []suggestionPayload `json:"suggestions,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleSelect(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Issue.Key == "" || req.Issue.ProjectKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "issue.key and issue.project_key are required")
	}

	item := domain.WorkItem{
		Key:         req.Issue.Key,
		ProjectKey:  req.Issue.ProjectKey,
		ProjectName: req.Issue.ProjectName,
		Summary:     req.Issue.Summary,
		IssueType:   req.Issue.IssueType,
		Status:      req.Issue.Status,
	}
	candidates := make([]domain.Account, len(req.Accounts))
	for i, a := range req.Accounts {
		candidates[i] = domain.Account{ID: a.ID, Key: a.Key, Name: a.Name}
	}

	sctx := s.buildContext(req, item)
	sel := s.engine.Select(c.Request().Context(), item, candidates, sctx)

	if sel.Account != nil {
		s.record(item, sel)
		go s.reviewer.MaybeRequestReview(item, sel)
	}

	resp := selectResponse{
		Confidence: sel.Confidence,
		Reason:     sel.Reason,
		Method:     sel.Method,
	}
	if sel.Account != nil {
		resp.Account = &accountPayload{ID: sel.Account.ID, Key: sel.Account.Key, Name: sel.Account.Name}
	}
	for _, sug := range sel.Suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionPayload{
			Account: accountPayload{ID: sug.Account.ID, Key: sug.Account.Key, Name: sug.Account.Name},
			Score:   sug.Score,
			Reason:  sug.Reason,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// buildContext assembles the selection context, preferring inline history
// from the request over the stored history. Store failures degrade to an
// empty context: the engine still answers.
func (s *Server) buildContext(req selectRequest, item domain.WorkItem) domain.SelectionContext {
	sctx := domain.SelectionContext{Description: req.Description}

	if len(req.UsageLog) > 0 {
		for _, u := range req.UsageLog {
			sctx.UsageLog = append(sctx.UsageLog, domain.UsageRecord{IssueKey: u.IssueKey, AccountKey: u.AccountKey})
		}
	} else if s.db != nil {
		usage, err := sqlite.ListUsage(s.db)
		if err != nil {
			log.Printf("select usage load error issue=%s: %v", item.Key, err)
		} else {
			sctx.UsageLog = usage
		}
	}

	if len(req.TimeEntries) > 0 {
		for _, en := range req.TimeEntries {
			sctx.Entries = append(sctx.Entries, domain.TimeEntry{
				IssueKey:    en.IssueKey,
				ProjectKey:  en.ProjectKey,
				AccountKey:  en.AccountKey,
				Description: en.Description,
				LoggedAt:    en.LoggedAt,
				Seconds:     en.Seconds,
			})
		}
	} else if s.db != nil {
		entries, err := sqlite.ListTimeEntriesForProject(s.db, item.ProjectKey)
		if err != nil {
			log.Printf("select entries load error issue=%s: %v", item.Key, err)
		} else {
			sctx.Entries = entries
		}
	}

	return sctx
}

// record stores the audit row and the usage pair so future selections
// learn from this one. Failures are logged, not surfaced.
func (s *Server) record(item domain.WorkItem, sel domain.Selection) {
	if s.db == nil {
		return
	}
	err := sqlite.InsertSelection(s.db, domain.SelectionRecord{
		IssueKey:    item.Key,
		AccountKey:  sel.Account.Key,
		AccountName: sel.Account.Name,
		Confidence:  sel.Confidence,
		Method:      sel.Method,
		Reason:      sel.Reason,
	})
	if err != nil {
		log.Printf("selection history insert error issue=%s: %v", item.Key, err)
	}
	if err := sqlite.InsertUsage(s.db, domain.UsageRecord{IssueKey: item.Key, AccountKey: sel.Account.Key}); err != nil {
		log.Printf("usage insert error issue=%s: %v", item.Key, err)
	}
}

func (s *Server) handleSelections(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	records, err := sqlite.RecentSelections(s.db, limit)
	if err != nil {
		log.Printf("selections list error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load selections")
	}
	return c.JSON(http.StatusOK, records)
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.addr)
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
