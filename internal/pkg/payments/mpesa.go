package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
)

const (
	defaultMpesaBaseURL = "https://sandbox.safaricom.co.ke"

	mpesaTimestampLayout = "20060102150405"

	// Daraja result codes we branch on.
	MpesaResultSuccess   = 0
	MpesaResultCancelled = 1032
)

// MpesaClient talks to the Safaricom Daraja API (OAuth token, STK push,
// STK status query).
type MpesaClient struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string

	BaseURL string

	HTTPClient *http.Client
	now        func() time.Time
}

// NewMpesaClientFromEnv builds a client from MPESA_* environment variables.
func NewMpesaClientFromEnv() *MpesaClient {
	return &MpesaClient{
		ConsumerKey:    strings.TrimSpace(env.GetEnv("MPESA_CONSUMER_KEY", "")),
		ConsumerSecret: strings.TrimSpace(env.GetEnv("MPESA_CONSUMER_SECRET", "")),
		ShortCode:      strings.TrimSpace(env.GetEnv("MPESA_SHORTCODE", "")),
		Passkey:        strings.TrimSpace(env.GetEnv("MPESA_PASSKEY", "")),
		CallbackURL:    strings.TrimSpace(env.GetEnv("MPESA_CALLBACK_URL", "")),
		BaseURL:        strings.TrimRight(env.GetEnv("MPESA_BASE_URL", defaultMpesaBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

func (c *MpesaClient) Name() string {
	return "mpesa"
}

type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// AccessToken obtains an OAuth bearer token via client-credentials.
func (c *MpesaClient) AccessToken(ctx context.Context) (string, error) {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return "", errors.New("MPESA_CONSUMER_KEY/MPESA_CONSUMER_SECRET are not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token request failed: status=%d body=%s", ErrUpstream, resp.StatusCode, string(body))
	}

	var out mpesaTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("%w: token response had empty access_token", ErrUpstream)
	}
	return out.AccessToken, nil
}

// stkPassword is base64(shortcode + passkey + timestamp), per Daraja docs.
func (c *MpesaClient) stkPassword(ts string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + ts))
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Initiate requests an STK push prompt on the payer's phone.
func (c *MpesaClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if c.ShortCode == "" || c.Passkey == "" {
		return nil, errors.New("MPESA_SHORTCODE/MPESA_PASSKEY are not configured")
	}
	if c.CallbackURL == "" {
		return nil, errors.New("MPESA_CALLBACK_URL is not configured")
	}
	phone := strings.TrimSpace(req.Payment.PhoneNumber)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := c.now().Format(mpesaTimestampLayout)
	payload := stkPushRequest{
		BusinessShortCode: c.ShortCode,
		Password:          c.stkPassword(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            int(math.Ceil(req.Payment.Amount)),
		PartyA:            phone,
		PartyB:            c.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.CallbackURL,
		AccountReference:  req.Payment.TransactionID,
		TransactionDesc:   fmt.Sprintf("%s subscription", req.Tier.Type),
	}

	body, err := c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, payload)
	if err != nil {
		return nil, err
	}

	var out stkPushResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: stk push rejected: code=%s desc=%s", ErrUpstream, out.ResponseCode, out.ResponseDescription)
	}

	return &InitiateResult{
		ProviderRef:     out.CheckoutRequestID,
		CustomerMessage: out.CustomerMessage,
		RawResponse:     string(body),
	}, nil
}

type stkQueryResponse struct {
	ResponseCode      string `json:"ResponseCode"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	ErrorCode         string `json:"errorCode"`
	ErrorMessage      string `json:"errorMessage"`
}

// QueryResult is the distilled outcome of an STK status query.
type QueryResult struct {
	// Settled is false while the prompt is still open on the payer's phone.
	Settled    bool
	Success    bool
	ResultCode int
	ResultDesc string
}

// QueryStatus asks Daraja for the outcome of a previously pushed prompt.
func (c *MpesaClient) QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResult, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return nil, errors.New("checkout request id is required")
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := c.now().Format(mpesaTimestampLayout)
	payload := map[string]string{
		"BusinessShortCode": c.ShortCode,
		"Password":          c.stkPassword(ts),
		"Timestamp":         ts,
		"CheckoutRequestID": checkoutRequestID,
	}

	body, err := c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", token, payload)
	if err != nil {
		// Daraja answers "still processing" with an error body.
		if strings.Contains(err.Error(), "500.001.1001") {
			return &QueryResult{Settled: false}, nil
		}
		return nil, err
	}

	var out stkQueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	var code int
	if _, err := fmt.Sscanf(strings.TrimSpace(out.ResultCode), "%d", &code); err != nil {
		return nil, fmt.Errorf("%w: unparseable ResultCode %q", ErrUpstream, out.ResultCode)
	}
	return &QueryResult{
		Settled:    true,
		Success:    code == MpesaResultSuccess,
		ResultCode: code,
		ResultDesc: out.ResultDesc,
	}, nil
}

func (c *MpesaClient) postJSON(ctx context.Context, path, token string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s failed: status=%d body=%s", ErrUpstream, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// MpesaCallback is the distilled STK result Daraja posts to our callback URL.
type MpesaCallback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	PhoneNumber       string
}

// Success reports whether the payer completed the prompt.
func (cb *MpesaCallback) Success() bool {
	return cb.ResultCode == MpesaResultSuccess
}

// ParseMpesaCallback decodes the Body.stkCallback envelope.
func ParseMpesaCallback(raw []byte) (*MpesaCallback, error) {
	var envelope struct {
		Body struct {
			StkCallback struct {
				MerchantRequestID string `json:"MerchantRequestID"`
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
				CallbackMetadata  struct {
					Item []struct {
						Name  string          `json:"Name"`
						Value json.RawMessage `json:"Value"`
					} `json:"Item"`
				} `json:"CallbackMetadata"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, errors.New("callback is missing CheckoutRequestID")
	}

	out := &MpesaCallback{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			_ = json.Unmarshal(item.Value, &out.Amount)
		case "MpesaReceiptNumber":
			_ = json.Unmarshal(item.Value, &out.ReceiptNumber)
		case "PhoneNumber":
			var n json.Number
			if err := json.Unmarshal(item.Value, &n); err == nil {
				out.PhoneNumber = n.String()
			} else {
				_ = json.Unmarshal(item.Value, &out.PhoneNumber)
			}
		}
	}
	return out, nil
}
