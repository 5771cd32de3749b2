package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
	"github.com/google/uuid"
)

const defaultBinanceBaseURL = "https://bpay.binanceapi.com"

// BinanceClient talks to the Binance Pay merchant API. Requests carry an
// HMAC-SHA512 signature over "timestamp\nnonce\npayload\n".
type BinanceClient struct {
	APIKey    string
	APISecret string
	ReturnURL string
	CancelURL string

	BaseURL string

	HTTPClient *http.Client
	now        func() time.Time
	nonce      func() string
}

// NewBinanceClientFromEnv builds a client from BINANCE_* environment variables.
func NewBinanceClientFromEnv() *BinanceClient {
	return &BinanceClient{
		APIKey:    strings.TrimSpace(env.GetEnv("BINANCE_API_KEY", "")),
		APISecret: strings.TrimSpace(env.GetEnv("BINANCE_API_SECRET", "")),
		ReturnURL: strings.TrimSpace(env.GetEnv("BINANCE_RETURN_URL", "")),
		CancelURL: strings.TrimSpace(env.GetEnv("BINANCE_CANCEL_URL", "")),
		BaseURL:   strings.TrimRight(env.GetEnv("BINANCE_BASE_URL", defaultBinanceBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now:   time.Now,
		nonce: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

func (c *BinanceClient) Name() string {
	return "binance"
}

// SignBinancePayload produces the uppercase hex HMAC-SHA512 signature the
// Binance Pay header scheme expects.
func SignBinancePayload(timestamp, nonce string, payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	fmt.Fprintf(mac, "%s\n%s\n%s\n", timestamp, nonce, payload)
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifyBinanceWebhookSignature checks an inbound notification against the
// shared secret. Comparison is constant time; hex case does not matter.
func VerifyBinanceWebhookSignature(payload []byte, timestamp, nonce, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || strings.TrimSpace(secret) == "" || timestamp == "" || nonce == "" {
		return false
	}
	expected := SignBinancePayload(timestamp, nonce, payload, secret)
	return hmac.Equal([]byte(strings.ToUpper(sig)), []byte(expected))
}

type binanceOrderRequest struct {
	Env struct {
		TerminalType string `json:"terminalType"`
	} `json:"env"`
	MerchantTradeNo string `json:"merchantTradeNo"`
	OrderAmount     string `json:"orderAmount"`
	Currency        string `json:"currency"`
	Goods           struct {
		GoodsType        string `json:"goodsType"`
		GoodsCategory    string `json:"goodsCategory"`
		ReferenceGoodsID string `json:"referenceGoodsId"`
		GoodsName        string `json:"goodsName"`
	} `json:"goods"`
	ReturnURL string `json:"returnUrl,omitempty"`
	CancelURL string `json:"cancelUrl,omitempty"`
}

type binanceOrderResponse struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Data   struct {
		PrepayID     string `json:"prepayId"`
		CheckoutURL  string `json:"checkoutUrl"`
		QRCodeLink   string `json:"qrcodeLink"`
		UniversalURL string `json:"universalUrl"`
	} `json:"data"`
	ErrorMessage string `json:"errorMessage"`
}

// Initiate opens a Binance Pay order and returns the hosted checkout URL.
func (c *BinanceClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if c.APIKey == "" || c.APISecret == "" {
		return nil, errors.New("BINANCE_API_KEY/BINANCE_API_SECRET are not configured")
	}

	var order binanceOrderRequest
	order.Env.TerminalType = "WEB"
	order.MerchantTradeNo = strings.ReplaceAll(req.Payment.TransactionID, "-", "")
	order.OrderAmount = fmt.Sprintf("%.2f", req.Payment.Amount)
	order.Currency = req.Payment.Currency
	order.Goods.GoodsType = "02" // virtual goods
	order.Goods.GoodsCategory = "Z000"
	order.Goods.ReferenceGoodsID = fmt.Sprintf("tier-%d", req.Tier.ID)
	order.Goods.GoodsName = fmt.Sprintf("%s subscription", req.Tier.Type)
	order.ReturnURL = c.ReturnURL
	order.CancelURL = c.CancelURL

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	timestamp := fmt.Sprintf("%d", c.now().UnixMilli())
	nonce := c.nonce()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/binancepay/openapi/v2/order", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("BinancePay-Timestamp", timestamp)
	httpReq.Header.Set("BinancePay-Nonce", nonce)
	httpReq.Header.Set("BinancePay-Certificate-SN", c.APIKey)
	httpReq.Header.Set("BinancePay-Signature", SignBinancePayload(timestamp, nonce, payload, c.APISecret))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: order request failed: status=%d body=%s", ErrUpstream, resp.StatusCode, string(body))
	}

	var out binanceOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Status, "SUCCESS") {
		return nil, fmt.Errorf("%w: order rejected: code=%s msg=%s", ErrUpstream, out.Code, out.ErrorMessage)
	}
	if out.Data.PrepayID == "" {
		return nil, fmt.Errorf("%w: order response had empty prepayId", ErrUpstream)
	}

	return &InitiateResult{
		ProviderRef: out.Data.PrepayID,
		CheckoutURL: out.Data.CheckoutURL,
		RawResponse: string(body),
	}, nil
}

// BinanceWebhook is the distilled order notification Binance Pay posts to
// our webhook endpoint.
type BinanceWebhook struct {
	BizType         string
	BizID           string
	BizStatus       string
	MerchantTradeNo string
	PrepayID        string
}

// Paid reports whether the notification settles the order.
func (w *BinanceWebhook) Paid() bool {
	return strings.EqualFold(w.BizStatus, "PAY_SUCCESS")
}

// ParseBinanceWebhook decodes an order notification. The interesting order
// fields ride inside the JSON-encoded "data" string.
func ParseBinanceWebhook(raw []byte) (*BinanceWebhook, error) {
	var envelope struct {
		BizType   string      `json:"bizType"`
		BizID     json.Number `json:"bizId"`
		BizStatus string      `json:"bizStatus"`
		Data      string      `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	out := &BinanceWebhook{
		BizType:   envelope.BizType,
		BizID:     envelope.BizID.String(),
		BizStatus: envelope.BizStatus,
	}
	if envelope.Data != "" {
		var data struct {
			MerchantTradeNo string `json:"merchantTradeNo"`
			PrepayID        string `json:"prepayId"`
		}
		if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
			return nil, fmt.Errorf("invalid webhook data payload: %w", err)
		}
		out.MerchantTradeNo = data.MerchantTradeNo
		out.PrepayID = data.PrepayID
	}
	if out.MerchantTradeNo == "" && out.PrepayID == "" {
		return nil, errors.New("webhook carries no order reference")
	}
	return out, nil
}
