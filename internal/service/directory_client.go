package service

import (
	"context"
	"fmt"
	"strings"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DirectoryEntry one person from the personnel directory.
type DirectoryEntry struct {
	Matricola string `json:"matricola"`
	Cognome   string `json:"cognome"`
	Nome      string `json:"nome"`
	Email     string `json:"email,omitempty"`
	Reparto   string `json:"reparto,omitempty"`
}

// DirectoryClient proxies the personnel directory HTTP API, used to look
// people up before registering them as alloggiati. In development mode no
// upstream is called and a fixed mock set is served.
type DirectoryClient struct {
	httpClient *resty.Client
	devMode    bool
	logger     *zap.Logger
}

func NewDirectoryClient(cfg config.DirectoryConfig, authMode string, logger *zap.Logger) *DirectoryClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &DirectoryClient{
		httpClient: client,
		devMode:    authMode == config.ModeDevelopment || cfg.BaseURL == "",
		logger:     logger,
	}
}

var mockDirectory = []DirectoryEntry{
	{Matricola: "972537J", Cognome: "Rossi", Nome: "Mario", Email: "mario.rossi@example.org", Reparto: "1° Reparto"},
	{Matricola: "845122K", Cognome: "Bianchi", Nome: "Luca", Email: "luca.bianchi@example.org", Reparto: "2° Reparto"},
	{Matricola: "910334T", Cognome: "Verdi", Nome: "Anna", Email: "anna.verdi@example.org", Reparto: "Comando"},
}

// TestConnection verifies the upstream directory is reachable.
func (c *DirectoryClient) TestConnection(ctx context.Context) error {
	if c.devMode {
		return nil
	}
	resp, err := c.httpClient.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("directory unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("directory returned status %d", resp.StatusCode())
	}
	return nil
}

// Search queries the directory by surname or matricola fragment. Term
// must be at least 3 characters.
func (c *DirectoryClient) Search(ctx context.Context, term string) ([]DirectoryEntry, error) {
	term = strings.TrimSpace(term)
	if len(term) < 3 {
		return nil, domain.NewValidationError("Il termine di ricerca deve avere almeno 3 caratteri")
	}

	if c.devMode {
		lower := strings.ToLower(term)
		out := []DirectoryEntry{}
		for _, e := range mockDirectory {
			if strings.Contains(strings.ToLower(e.Cognome), lower) ||
				strings.Contains(strings.ToLower(e.Matricola), lower) {
				out = append(out, e)
			}
		}
		return out, nil
	}

	var entries []DirectoryEntry
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("term", term).
		SetResult(&entries).
		Get("/search")
	if err != nil {
		c.logger.Error("directory search failed", zap.String("term", term), zap.Error(err))
		return nil, fmt.Errorf("directory search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("directory search returned status %d", resp.StatusCode())
	}
	return entries, nil
}
