// Package rest implements the remote adapter against an HTTP JSON
// backend. Month settings, transactions and budgets live in separate
// collections and are fetched in parallel to assemble a partition.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/core"
	"financas/internal/remote"
)

const defaultTimeout = 30 * time.Second

// Config carries the connection parameters for the backend.
type Config struct {
	BaseURL string
	// Timeout bounds each HTTP request. Zero means defaultTimeout.
	Timeout time.Duration
}

// StaticSession is a token-backed session that is valid as long as the
// token is non-empty. It satisfies remote.Session for deployments where
// auth happens out of band.
type StaticSession struct {
	Token string
	User  string
}

func (s StaticSession) Valid() bool    { return s.Token != "" }
func (s StaticSession) UserID() string { return s.User }

// Client talks to the backend API. All operations require a valid
// session; without one they fail fast with remote.ErrNoSession before
// any network activity.
type Client struct {
	baseURL    string
	session    remote.Session
	token      string
	httpClient *http.Client
}

// New builds a client for the given backend and session.
func New(cfg Config, session remote.Session) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	token := ""
	if ss, ok := session.(StaticSession); ok {
		token = ss.Token
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		session:    session,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type monthSettingsDTO struct {
	MonthKey       string `json:"month_key"`
	InitialBalance int64  `json:"initial_balance_cents"`
}

type transactionDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	BudgetID    string `json:"budget_id,omitempty"`
}

type budgetDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LimitCents int64  `json:"limit_cents"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FetchMonth implements remote.Adapter. The three collections of a
// partition are independent resources; they are fetched concurrently and
// the first failure cancels the rest.
func (c *Client) FetchMonth(ctx context.Context, monthKey string) (core.MonthData, error) {
	if !c.session.Valid() {
		return core.MonthData{}, remote.WrapErr("fetch month", remote.ErrNoSession)
	}

	var (
		settings monthSettingsDTO
		txns     []transactionDTO
		budgets  []budgetDTO
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getOptional(gctx, "/api/months/"+url.PathEscape(monthKey)+"/settings", &settings)
	})
	g.Go(func() error {
		return c.getOptional(gctx, "/api/transactions?month="+url.QueryEscape(monthKey), &txns)
	})
	g.Go(func() error {
		return c.getOptional(gctx, "/api/budgets?month="+url.QueryEscape(monthKey), &budgets)
	})
	if err := g.Wait(); err != nil {
		return core.MonthData{}, remote.WrapErr("fetch month", err)
	}

	data := core.MonthData{
		InitialBalance: core.Money{Cents: settings.InitialBalance},
	}
	for _, dto := range txns {
		t, err := dto.toDomain()
		if err != nil {
			return core.MonthData{}, remote.WrapErr("fetch month", err)
		}
		data.Transactions = append(data.Transactions, t)
	}
	for _, dto := range budgets {
		data.Budgets = append(data.Budgets, core.Budget{
			ID:    dto.ID,
			Name:  dto.Name,
			Limit: core.Money{Cents: dto.LimitCents},
		})
	}
	return data, nil
}

// SetInitialBalance implements remote.Adapter.
func (c *Client) SetInitialBalance(ctx context.Context, monthKey string, balance core.Money) error {
	if !c.session.Valid() {
		return remote.WrapErr("set initial balance", remote.ErrNoSession)
	}
	body := monthSettingsDTO{MonthKey: monthKey, InitialBalance: balance.Cents}
	err := c.do(ctx, http.MethodPut, "/api/months/"+url.PathEscape(monthKey)+"/settings", body, nil)
	return remote.WrapErr("set initial balance", err)
}

// CreateTransaction implements remote.Adapter.
func (c *Client) CreateTransaction(ctx context.Context, monthKey string, t core.Transaction) (core.Transaction, error) {
	if !c.session.Valid() {
		return core.Transaction{}, remote.WrapErr("create transaction", remote.ErrNoSession)
	}
	var created transactionDTO
	err := c.do(ctx, http.MethodPost, "/api/transactions?month="+url.QueryEscape(monthKey), fromDomainTx(t), &created)
	if err != nil {
		return core.Transaction{}, remote.WrapErr("create transaction", err)
	}
	out, err := created.toDomain()
	if err != nil {
		return core.Transaction{}, remote.WrapErr("create transaction", err)
	}
	return out, nil
}

// UpdateTransaction implements remote.Adapter.
func (c *Client) UpdateTransaction(ctx context.Context, id string, t core.Transaction) error {
	if !c.session.Valid() {
		return remote.WrapErr("update transaction", remote.ErrNoSession)
	}
	err := c.do(ctx, http.MethodPut, "/api/transactions/"+url.PathEscape(id), fromDomainTx(t), nil)
	return remote.WrapErr("update transaction", err)
}

// DeleteTransaction implements remote.Adapter.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if !c.session.Valid() {
		return remote.WrapErr("delete transaction", remote.ErrNoSession)
	}
	err := c.do(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), nil, nil)
	return remote.WrapErr("delete transaction", err)
}

// CreateBudget implements remote.Adapter.
func (c *Client) CreateBudget(ctx context.Context, monthKey string, b core.Budget) (core.Budget, error) {
	if !c.session.Valid() {
		return core.Budget{}, remote.WrapErr("create budget", remote.ErrNoSession)
	}
	var created budgetDTO
	err := c.do(ctx, http.MethodPost, "/api/budgets?month="+url.QueryEscape(monthKey), fromDomainBudget(b), &created)
	if err != nil {
		return core.Budget{}, remote.WrapErr("create budget", err)
	}
	return core.Budget{ID: created.ID, Name: created.Name, Limit: core.Money{Cents: created.LimitCents}}, nil
}

// UpdateBudget implements remote.Adapter.
func (c *Client) UpdateBudget(ctx context.Context, id string, b core.Budget) error {
	if !c.session.Valid() {
		return remote.WrapErr("update budget", remote.ErrNoSession)
	}
	err := c.do(ctx, http.MethodPut, "/api/budgets/"+url.PathEscape(id), fromDomainBudget(b), nil)
	return remote.WrapErr("update budget", err)
}

// DeleteBudget implements remote.Adapter.
func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	if !c.session.Valid() {
		return remote.WrapErr("delete budget", remote.ErrNoSession)
	}
	err := c.do(ctx, http.MethodDelete, "/api/budgets/"+url.PathEscape(id), nil, nil)
	return remote.WrapErr("delete budget", err)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// getOptional is get for resources that may not exist yet. A month that
// was never written has no settings row and empty collections; the
// backend answers 404 and the caller keeps the zero value.
func (c *Client) getOptional(ctx context.Context, path string, out any) error {
	err := c.get(ctx, path, out)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, core.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Message, resp.Status)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (dto transactionDTO) toDomain() (core.Transaction, error) {
	date, err := core.ParseDate(dto.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", dto.ID, err)
	}
	return core.Transaction{
		ID:          dto.ID,
		Description: dto.Description,
		Amount:      core.Money{Cents: dto.AmountCents},
		Kind:        core.Kind(dto.Kind),
		Date:        date,
		BudgetID:    dto.BudgetID,
	}, nil
}

func fromDomainTx(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Kind:        string(t.Kind),
		Date:        t.Date.ISO(),
		BudgetID:    t.BudgetID,
	}
}

func fromDomainBudget(b core.Budget) budgetDTO {
	return budgetDTO{ID: b.ID, Name: b.Name, LimitCents: b.Limit.Cents}
}
