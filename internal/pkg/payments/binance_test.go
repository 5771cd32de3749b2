package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

func TestSignBinancePayload(t *testing.T) {
	payload := []byte(`{"merchantTradeNo":"abc"}`)
	secret := "shhh"
	timestamp := "1700000000000"
	nonce := "0123456789abcdef0123456789abcdef"

	mac := hmac.New(sha512.New, []byte(secret))
	fmt.Fprintf(mac, "%s\n%s\n%s\n", timestamp, nonce, payload)
	want := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	if got := SignBinancePayload(timestamp, nonce, payload, secret); got != want {
		t.Fatalf("SignBinancePayload = %s, want %s", got, want)
	}
}

func TestVerifyBinanceWebhookSignature(t *testing.T) {
	payload := []byte(`{"bizStatus":"PAY_SUCCESS"}`)
	secret := "top-secret"
	timestamp := "1700000000000"
	nonce := "nonce-value"

	valid := SignBinancePayload(timestamp, nonce, payload, secret)

	if !VerifyBinanceWebhookSignature(payload, timestamp, nonce, valid, secret) {
		t.Fatalf("expected signature to validate")
	}
	// hex case must not matter
	if !VerifyBinanceWebhookSignature(payload, timestamp, nonce, strings.ToLower(valid), secret) {
		t.Fatalf("expected lowercase signature to validate")
	}
	if VerifyBinanceWebhookSignature(payload, timestamp, nonce, valid, "wrong-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyBinanceWebhookSignature([]byte(`tampered`), timestamp, nonce, valid, secret) {
		t.Fatalf("expected tampered payload to fail")
	}
	if VerifyBinanceWebhookSignature(payload, "", nonce, valid, secret) {
		t.Fatalf("expected missing timestamp to fail")
	}
	if VerifyBinanceWebhookSignature(payload, timestamp, nonce, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
}

func TestParseBinanceWebhook(t *testing.T) {
	raw := []byte(`{
		"bizType": "PAY",
		"bizId": 29383937493038367292,
		"bizStatus": "PAY_SUCCESS",
		"data": "{\"merchantTradeNo\":\"9825382937292\",\"prepayId\":\"383729303729303\",\"totalFee\":0.88,\"currency\":\"USDT\"}"
	}`)

	wh, err := ParseBinanceWebhook(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if wh.BizType != "PAY" {
		t.Fatalf("unexpected bizType %q", wh.BizType)
	}
	if wh.MerchantTradeNo != "9825382937292" {
		t.Fatalf("unexpected merchantTradeNo %q", wh.MerchantTradeNo)
	}
	if wh.PrepayID != "383729303729303" {
		t.Fatalf("unexpected prepayId %q", wh.PrepayID)
	}
	if !wh.Paid() {
		t.Fatalf("expected PAY_SUCCESS to report paid")
	}
}

func TestParseBinanceWebhook_Closed(t *testing.T) {
	raw := []byte(`{"bizType":"PAY","bizId":123,"bizStatus":"PAY_CLOSED","data":"{\"merchantTradeNo\":\"m1\"}"}`)
	wh, err := ParseBinanceWebhook(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if wh.Paid() {
		t.Fatalf("expected PAY_CLOSED not to report paid")
	}
}

func TestRestoreTradeNo(t *testing.T) {
	id := "3f1c2b7a8d9e4f5a6b7c8d9e0f1a2b3c"
	want := "3f1c2b7a-8d9e-4f5a-6b7c-8d9e0f1a2b3c"
	if got := restoreTradeNo(id); got != want {
		t.Fatalf("restoreTradeNo(%q) = %q, want %q", id, got, want)
	}
	// already-dashed values pass through
	if got := restoreTradeNo(want); got != want {
		t.Fatalf("restoreTradeNo(%q) = %q, want unchanged", want, got)
	}
}
