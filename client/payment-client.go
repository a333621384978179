package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"eventdesk/config"
	"eventdesk/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2/clientcredentials"
)

// PaymentClient talks to the hosted mobile-wallet checkout API. The gateway
// owns the actual money movement; this client only creates sessions and
// executes/confirms payments by id.
type PaymentClient struct {
	BaseURL     string
	CallbackURL string
	Currency    string
	Client      *http.Client
}

func NewPaymentClient() *PaymentClient {
	cfg := config.Env()
	credentials := &clientcredentials.Config{
		ClientID:     cfg.GatewayAppKey,
		ClientSecret: cfg.GatewayAppSecret,
		TokenURL:     cfg.GatewayTokenURL,
	}
	return &PaymentClient{
		BaseURL:     cfg.GatewayBaseURL,
		CallbackURL: cfg.GatewayCallbackURL,
		Currency:    cfg.Currency,
		Client:      credentials.Client(context.Background()),
	}
}

type CreatePaymentRequest struct {
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	CallbackURL           string `json:"callbackURL"`
	PayerReference        string `json:"payerReference"`
}

type CreatePaymentResponse struct {
	PaymentID     string `json:"paymentID"`
	RedirectURL   string `json:"redirectURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

type ExecutePaymentResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	Amount                string `json:"amount"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

func (r *ExecutePaymentResponse) Completed() bool {
	return r.TransactionStatus == "Completed"
}

// ErrorDetail is the gateway's own explanation for a declined or cancelled
// payment; it is surfaced verbatim to the registrant.
func (r *ExecutePaymentResponse) ErrorDetail() string {
	if r.StatusMessage != "" {
		return r.StatusMessage
	}
	return fmt.Sprintf("transaction status %q", r.TransactionStatus)
}

func (c *PaymentClient) CreatePayment(ctx context.Context, amount float64, invoiceRef string, payerRef string) (*CreatePaymentResponse, error) {
	request := &CreatePaymentRequest{
		Amount:                strconv.FormatFloat(amount, 'f', 2, 64),
		Currency:              c.Currency,
		Intent:                "sale",
		MerchantInvoiceNumber: invoiceRef,
		CallbackURL:           c.CallbackURL,
		PayerReference:        payerRef,
	}
	response := &CreatePaymentResponse{}
	if err := c.post(ctx, "/checkout/create", request, response); err != nil {
		return nil, err
	}
	if response.PaymentID == "" || response.RedirectURL == "" {
		return nil, fmt.Errorf("gateway did not return a payment session: %s", response.StatusMessage)
	}
	return response, nil
}

func (c *PaymentClient) ExecutePayment(ctx context.Context, paymentId string) (*ExecutePaymentResponse, error) {
	request := map[string]string{"paymentID": paymentId}
	response := &ExecutePaymentResponse{}
	if err := c.post(ctx, "/checkout/execute", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *PaymentClient) post(ctx context.Context, endpoint string, body any, out any) error {
	timer := prometheus.NewTimer(metrics.GatewayRequestDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := c.Client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %d: %s", response.StatusCode, string(responseBody))
	}
	return json.Unmarshal(responseBody, out)
}
