// Package parsersvc is the HTTP client for the dedicated UBL parsing
// service. When the service is not configured the local XML extractor is
// used instead, so every error here is a sentinel the web layer can map to a
// distinct status code.
package parsersvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solarstock/internal/parse"
)

var (
	ErrNotConfigured = errors.New("parser service not configured")
	ErrAuthFailed    = errors.New("parser service rejected credentials")
	ErrTimeout       = errors.New("parser service timed out")
	ErrParser        = errors.New("parser service error")
)

// Config comes from UBL_PARSER_URL, UBL_PARSER_TOKEN and UBL_PARSER_TIMEOUT.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// FromEnv reads the parser service configuration from the environment. A
// missing URL means the service is simply not configured, not an error.
func FromEnv() Config {
	cfg := Config{
		BaseURL: os.Getenv("UBL_PARSER_URL"),
		Token:   os.Getenv("UBL_PARSER_TOKEN"),
		Timeout: 30 * time.Second,
	}
	if v := os.Getenv("UBL_PARSER_TIMEOUT"); v != "" {
		// A bare number means seconds; "30s"/"1m30s" style works too.
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		} else if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// parseResponse mirrors the service's JSON contract.
type parseResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		InvoiceMetadata struct {
			Supplier      string           `json:"supplier"`
			InvoiceNumber string           `json:"invoice_number"`
			InvoiceDate   string           `json:"invoice_date"`
			TotalAmount   *decimal.Decimal `json:"total_amount"`
		} `json:"invoice_metadata"`
		LineItems []struct {
			Description string           `json:"description"`
			SKU         string           `json:"sku"`
			Quantity    decimal.Decimal  `json:"quantity"`
			Unit        string           `json:"unit"`
			UnitPrice   *decimal.Decimal `json:"unit_price"`
			TotalPrice  *decimal.Decimal `json:"total_price"`
			TaxPercent  *decimal.Decimal `json:"tax_percent"`
		} `json:"line_items"`
	} `json:"data"`
}

// Parse uploads the document to the service's /parse endpoint and maps the
// response into the canonical ParsedInvoice.
func (c *Client) Parse(ctx context.Context, filename string, data []byte) (*parse.ParsedInvoice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/parse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("build parser request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrParser, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAuthFailed
	default:
		var pr parseResponse
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.NewDecoder(resp.Body).Decode(&pr) == nil && pr.Error != "" {
			msg = pr.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrParser, msg)
	}

	var pr parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrParser, err)
	}
	if !pr.Success {
		msg := pr.Error
		if msg == "" {
			msg = "parsing failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrParser, msg)
	}

	inv := &parse.ParsedInvoice{
		Supplier:      pr.Data.InvoiceMetadata.Supplier,
		InvoiceNumber: pr.Data.InvoiceMetadata.InvoiceNumber,
		InvoiceDate:   pr.Data.InvoiceMetadata.InvoiceDate,
		TotalAmount:   pr.Data.InvoiceMetadata.TotalAmount,
		Items:         []parse.ParsedLine{},
	}
	for _, li := range pr.Data.LineItems {
		item := parse.ParsedLine{
			Description: li.Description,
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			Unit:        li.Unit,
			UnitPrice:   li.UnitPrice,
			TotalPrice:  li.TotalPrice,
			TaxPercent:  li.TaxPercent,
		}
		item.DeriveTotal()
		inv.Items = append(inv.Items, item)
	}
	return inv, nil
}

func isClientTimeout(err error) bool {
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
