package health

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pedalgate/internal/platform/config"
	"pedalgate/pkg/platform/sentinel"
)

// Check names reported by the gateway.
const (
	CheckDatabase = "database"
	CheckRewards  = "rewards"
	CheckEmail    = "email"
)

// Check is one dependency probe. Run returns nil when the dependency is usable.
type Check interface {
	Name() string
	Run(ctx context.Context) error
}

// CheckFunc adapts a function to Check.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                  { return c.CheckName }
func (c CheckFunc) Run(ctx context.Context) error { return c.Fn(ctx) }

// TableProbe verifies a table is reachable with a one-row read.
type TableProbe struct {
	name  string
	table string
	db    *sql.DB
}

// NewTableProbe probes table on db. A nil db reports not configured.
func NewTableProbe(name, table string, db *sql.DB) *TableProbe {
	return &TableProbe{name: name, table: table, db: db}
}

func (p *TableProbe) Name() string { return p.name }

func (p *TableProbe) Run(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("database %w", sentinel.ErrNotConfigured)
	}
	// table names are compile-time constants from the wiring code
	rows, err := p.db.QueryContext(ctx, "SELECT 1 FROM "+p.table+" LIMIT 1")
	if err != nil {
		return fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()
	return rows.Err()
}

// MailProbe verifies the mail provider accepts the configured API key.
type MailProbe struct {
	cfg    config.Mail
	client *http.Client
}

// NewMailProbe creates a probe for the mail provider. A nil client uses
// http.DefaultClient.
func NewMailProbe(cfg config.Mail, client *http.Client) *MailProbe {
	if client == nil {
		client = http.DefaultClient
	}
	return &MailProbe{cfg: cfg, client: client}
}

func (p *MailProbe) Name() string { return CheckEmail }

func (p *MailProbe) Run(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return fmt.Errorf("mail API key %w", sentinel.ErrNotConfigured)
	}
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/domains"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build mail probe: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	return nil
}
