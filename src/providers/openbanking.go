package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// OpenBankingClient talks to a PSD2-style account information API.
// Authentication uses client credentials; token refresh is handled by
// the oauth2 token source. The consent flow that links an account in
// the first place is not this service's job.
type OpenBankingClient struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	limiter     *rate.Limiter

	mu            sync.Mutex
	lastRequestAt time.Time
	lastError     string
}

// ClientConfig carries the settings an OpenBankingClient needs.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// NewOpenBankingClient builds a client with a cookie jar, a request
// timeout and a conservative request rate (most account information
// APIs throttle around 10 req/s per client).
func NewOpenBankingClient(cfg ClientConfig) (*OpenBankingClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	return &OpenBankingClient{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Jar: jar, Timeout: timeout},
		tokenSource: cc.TokenSource(context.Background()),
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}, nil
}

// Wire format of the provider's transaction listing.
type transactionsResponse struct {
	Transactions struct {
		Booked []wireTransaction `json:"booked"`
	} `json:"transactions"`
}

type wireTransaction struct {
	TransactionID     string `json:"transactionId"`
	BookingDate       string `json:"bookingDate"`
	TransactionAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"transactionAmount"`
	RemittanceInformation string `json:"remittanceInformationUnstructured"`
	CreditorName          string `json:"creditorName"`
	DebtorName            string `json:"debtorName"`
}

// FetchTransactions pulls booked transactions for one account and maps
// them into the engine's normalized shape. Records the engine would
// reject (unparseable amount, missing date) are still returned; the
// engine counts them as invalid rather than the adapter dropping them
// silently.
func (c *OpenBankingClient) FetchTransactions(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v2/accounts/%s/transactions/?date_from=%s&date_to=%s",
		c.baseURL, accountID, from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		c.recordError(err)
		return nil, fmt.Errorf("%w: %v", ErrExpiredCredentials, err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	c.recordRequest()
	if err != nil {
		c.recordError(err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.recordError(fmt.Errorf("status %d", resp.StatusCode))
		return nil, ErrExpiredCredentials
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict:
		c.recordError(fmt.Errorf("status %d", resp.StatusCode))
		return nil, ErrNoActiveConnection
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.recordError(fmt.Errorf("status %d: %s", resp.StatusCode, body))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var payload transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.recordError(err)
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProviderUnavailable, err)
	}

	txs := make([]models.Transaction, 0, len(payload.Transactions.Booked))
	for _, wt := range payload.Transactions.Booked {
		txs = append(txs, c.mapTransaction(wt))
	}
	logger.L.Debug("Fetched provider transactions", "accountID", accountID, "count", len(txs))
	return txs, nil
}

func (c *OpenBankingClient) mapTransaction(wt wireTransaction) models.Transaction {
	amount, err := strconv.ParseFloat(wt.TransactionAmount.Amount, 64)
	if err != nil {
		amount = 0 // missing amount, the engine skips it as invalid
	}

	date, err := time.Parse("2006-01-02", wt.BookingDate)
	if err != nil {
		date = time.Time{}
	}

	currency := wt.TransactionAmount.Currency
	if currency == "" {
		currency = "EUR"
	}

	counterparty := wt.CreditorName
	if amount > 0 {
		counterparty = wt.DebtorName
	}

	return models.Transaction{
		ID:               wt.TransactionID,
		Amount:           amount,
		Currency:         currency,
		Date:             date,
		Description:      wt.RemittanceInformation,
		CounterpartyName: counterparty,
	}
}

// Diagnostics reports connection health without exposing adapter
// internals to callers.
func (c *OpenBankingClient) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	d := &Diagnostics{
		Provider: "openbanking",
		BaseURL:  c.baseURL,
	}

	token, err := c.tokenSource.Token()
	if err == nil && token.Valid() {
		d.TokenValid = true
		d.TokenExpiry = token.Expiry
	}

	c.mu.Lock()
	d.LastRequestAt = c.lastRequestAt
	d.LastError = c.lastError
	c.mu.Unlock()

	return d, nil
}

func (c *OpenBankingClient) recordRequest() {
	c.mu.Lock()
	c.lastRequestAt = time.Now()
	c.mu.Unlock()
}

func (c *OpenBankingClient) recordError(err error) {
	c.mu.Lock()
	c.lastError = err.Error()
	c.mu.Unlock()
}
