package pagarme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Smilefounder/services-core/internal/domain/gateway"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

const (
	DefaultBaseURL = "https://api.pagar.me/1"
	DefaultTimeout = 60 * time.Second

	peer               = "pagarme"
	endpointCreate     = "transactions.create"
	endpointPayables   = "payables.list"
	maxErrorBodyLogged = 512
)

var (
	ErrMissingAPIKey = errors.New("pagarme: api key is required")
	// ErrUnexpectedResponse covers non-2xx answers that are not field rejections.
	ErrUnexpectedResponse = errors.New("pagarme: unexpected response")
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is the Pagar.me implementation of gateway.Client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	tracer     observability.Tracer
	log        observability.Logger
	reqCounter observability.Counter
	durHist    observability.Histogram
}

var _ gateway.Client = (*Client)(nil)

func NewClient(cfg Config, tel observability.Observability) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     tel.Tracer(),
		log:        tel.Logger().With(observability.F("peer", peer)),
		reqCounter: m.Counter(observability.MExternalRequests),
		durHist:    m.Histogram(observability.MExternalRequestDuration),
	}, nil
}

type createTransactionRequest struct {
	APIKey string `json:"api_key"`
	gateway.ChargeRequest
}

type errorResponse struct {
	Errors []gateway.FieldError `json:"errors"`
}

// Charge creates a synchronous transaction and, when the gateway assigned it
// an id, fetches its payables.
func (c *Client) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.Outcome, error) {
	body, err := json.Marshal(createTransactionRequest{APIKey: c.apiKey, ChargeRequest: req})
	if err != nil {
		return nil, fmt.Errorf("pagarme: encode transaction: %w", err)
	}

	status, respBody, err := c.do(ctx, endpointCreate, http.MethodPost, c.baseURL+"/transactions", body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		var er errorResponse
		if status >= 400 && status < 500 && json.Unmarshal(respBody, &er) == nil && len(er.Errors) > 0 {
			return gateway.Rejected{Errors: er.Errors}, nil
		}
		return nil, fmt.Errorf("%w: create transaction status %d: %s", ErrUnexpectedResponse, status, truncate(respBody))
	}

	var tx gateway.Transaction
	if err := json.Unmarshal(respBody, &tx); err != nil {
		return nil, fmt.Errorf("pagarme: decode transaction: %w", err)
	}
	logctx.FromOr(ctx, c.log).Info("gateway_transaction_response",
		observability.F("transaction_id", tx.ID),
		observability.F("transaction_status", string(tx.Status)),
	)
	if tx.ID == 0 {
		return gateway.Declined{Transaction: tx}, nil
	}

	payables, err := c.payables(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	return gateway.Charged{Transaction: tx, Payables: payables}, nil
}

func (c *Client) payables(ctx context.Context, transactionID int64) ([]gateway.Payable, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	u := fmt.Sprintf("%s/transactions/%s/payables?%s", c.baseURL, strconv.FormatInt(transactionID, 10), q.Encode())

	status, respBody, err := c.do(ctx, endpointPayables, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: list payables status %d: %s", ErrUnexpectedResponse, status, truncate(respBody))
	}

	var payables []gateway.Payable
	if err := json.Unmarshal(respBody, &payables); err != nil {
		return nil, fmt.Errorf("pagarme: decode payables: %w", err)
	}
	return payables, nil
}

// do performs one HTTP exchange and records it as an external call.
func (c *Client) do(ctx context.Context, endpoint, method, target string, body []byte) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "HTTP "+endpoint,
		attribute.String("peer.service", peer),
		attribute.String("http.method", method),
	)
	defer span.End()

	start := time.Now()
	outcome := "success"
	defer func() {
		c.reqCounter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		c.durHist.Observe(time.Since(start).Seconds(),
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
		)
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		outcome = "error"
		return 0, nil, fmt.Errorf("pagarme: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return 0, nil, fmt.Errorf("pagarme: %s: %w", endpoint, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "error"
		return 0, nil, fmt.Errorf("pagarme: read %s response: %w", endpoint, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		outcome = "http_" + strconv.Itoa(resp.StatusCode)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp.StatusCode, respBody, nil
}

// redact keeps the api key out of transport errors, which quote the URL.
func redact(err error, secret string) error {
	var uerr *url.Error
	if secret != "" && errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, secret, "redacted")
	}
	return err
}

func truncate(b []byte) string {
	if len(b) > maxErrorBodyLogged {
		return string(b[:maxErrorBodyLogged]) + "..."
	}
	return string(b)
}
