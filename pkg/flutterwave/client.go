package flutterwave

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

	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/types"
)

const (
	testEnv = "test"
	liveEnv = "live"

	initializePath = "/v3/payments"
	verifyPath     = "/v3/transactions/verify_by_reference"
)

var (
	errSecretKeyRequired  = errors.New("flutterwave secret key is required")
	errInvalidEnv         = fmt.Errorf("flutterwave environment must be %q or %q", testEnv, liveEnv)
	errMissingPaymentLink = errors.New("gateway response is missing the hosted payment link")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client drives Flutterwave's hosted-payment flow: initialize a payment page
// session, then verify the transaction by reference once the shopper returns.
type Client struct {
	http        httpDoer
	secretKey   string
	baseURL     string
	environment string
	logger      *logger.Logger
}

// InitializeInput carries everything the gateway needs to open a payment page.
type InitializeInput struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	RedirectURL string
	Email       string
	Name        string
	PhoneNumber string
}

// VerificationResult is the typed slice of the gateway's verify response; Raw
// keeps the full payload for the order's payment-details column.
type VerificationResult struct {
	Reference string
	Status    enums.PaymentStatus
	Amount    decimal.Decimal
	Currency  string
	Raw       types.JSONMap
}

// NewClient validates the configured credentials and builds the wrapper.
func NewClient(ctx context.Context, cfg config.FlutterwaveConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}
	if err := validateSecretKey(env, secretKey); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		http:        &http.Client{Timeout: timeout},
		secretKey:   secretKey,
		baseURL:     baseURL,
		environment: env,
		logger:      logg,
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("flutterwave client initialized (%s)", env))
	}
	return c, nil
}

// Environment reports the normalized Flutterwave environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

type initializeRequest struct {
	TxRef       string          `json:"tx_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	RedirectURL string          `json:"redirect_url"`
	Customer    struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		PhoneNumber string `json:"phonenumber"`
	} `json:"customer"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// Initialize opens a hosted-payment-page session and returns its URL. The
// caller hands the URL to the browser; control does not come back through this
// client until Verify.
func (c *Client) Initialize(ctx context.Context, input InitializeInput) (string, error) {
	if strings.TrimSpace(input.TxRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	if input.Amount.Cmp(decimal.Zero) <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload := initializeRequest{
		TxRef:       input.TxRef,
		Amount:      input.Amount,
		Currency:    input.Currency,
		RedirectURL: input.RedirectURL,
	}
	payload.Customer.Email = input.Email
	payload.Customer.Name = input.Name
	payload.Customer.PhoneNumber = input.PhoneNumber

	var resp initializeResponse
	if err := c.do(ctx, http.MethodPost, initializePath, nil, payload, &resp); err != nil {
		return "", err
	}

	link := strings.TrimSpace(resp.Data.Link)
	if link == "" {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, errMissingPaymentLink, "initialize payment")
	}
	return link, nil
}

// Verify fetches the outcome of a transaction by its reference. It is called
// at most once per checkout attempt and never retried.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerificationResult, error) {
	if strings.TrimSpace(txRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	query := url.Values{"tx_ref": {txRef}}

	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, verifyPath, query, nil, &raw); err != nil {
		return nil, err
	}

	data, _ := raw["data"].(map[string]any)
	if data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway verify response has no data")
	}

	result := &VerificationResult{
		Reference: txRef,
		Status:    enums.PaymentStatus(stringField(data, "status")),
		Currency:  stringField(data, "currency"),
		Raw:       types.JSONMap(data),
	}
	if amount, ok := data["amount"]; ok {
		if parsed, err := decimalFromAny(amount); err == nil {
			result.Amount = parsed
		}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment gateway")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": truncate(string(payload), 512)})
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}

func validateSecretKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "FLWSECK_TEST-") {
			return nil
		}
		return fmt.Errorf("flutterwave environment %q requires a test secret key (FLWSECK_TEST-)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "FLWSECK-") {
			return nil
		}
		return fmt.Errorf("flutterwave environment %q requires a live secret key (FLWSECK-)", liveEnv)
	default:
		return errInvalidEnv
	}
}

func stringField(data map[string]any, key string) string {
	if value, ok := data[key].(string); ok {
		return value
	}
	return ""
}

func decimalFromAny(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
