package flutterwave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.FlutterwaveConfig{
		SecretKey: "FLWSECK_TEST-abc123",
		BaseURL:   baseURL,
		Env:       "test",
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsMismatchedKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.FlutterwaveConfig{
		SecretKey: "FLWSECK-live-key",
		Env:       "test",
	}, nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.FlutterwaveConfig{
		SecretKey: "FLWSECK_TEST-abc",
		Env:       "live",
	}, nil)
	require.Error(t, err)
}

func TestNewClientRejectsUnknownEnv(t *testing.T) {
	_, err := NewClient(context.Background(), config.FlutterwaveConfig{
		SecretKey: "FLWSECK_TEST-abc",
		Env:       "sandbox",
	}, nil)
	require.Error(t, err)
}

func TestInitializeReturnsHostedLink(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-abc123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	link, err := client.Initialize(context.Background(), InitializeInput{
		TxRef:       "BSC-123",
		Amount:      decimal.NewFromInt(450000),
		Currency:    "NGN",
		RedirectURL: "https://shop.example.com/return",
		Email:       "ada@example.com",
		Name:        "Ada Obi",
		PhoneNumber: "+2348012345678",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/abc", link)

	assert.Equal(t, "BSC-123", captured["tx_ref"])
	customer, ok := captured["customer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", customer["email"])
	assert.Equal(t, "+2348012345678", customer["phonenumber"])
}

func TestInitializeRequiresPositiveAmount(t *testing.T) {
	client := testClient(t, "https://api.flutterwave.com")
	_, err := client.Initialize(context.Background(), InitializeInput{TxRef: "BSC-1", Amount: decimal.Zero})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestInitializeMissingLinkIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Initialize(context.Background(), InitializeInput{
		TxRef:  "BSC-123",
		Amount: decimal.NewFromInt(1000),
	})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
}

func TestVerifyParsesTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
		assert.Equal(t, "BSC-123", r.URL.Query().Get("tx_ref"))

		_, _ = w.Write([]byte(`{"status":"success","data":{"status":"successful","amount":450000,"currency":"NGN","flw_ref":"FLW-MOCK-1"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Verify(context.Background(), "BSC-123")
	require.NoError(t, err)

	assert.Equal(t, "BSC-123", result.Reference)
	assert.Equal(t, enums.PaymentStatusSuccessful, result.Status)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(450000)))
	assert.Equal(t, "NGN", result.Currency)
	assert.Equal(t, "FLW-MOCK-1", result.Raw["flw_ref"])
}

func TestVerifyGatewayErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Verify(context.Background(), "BSC-123")
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
}
