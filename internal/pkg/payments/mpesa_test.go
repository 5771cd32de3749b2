package payments

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestStkPassword(t *testing.T) {
	c := &MpesaClient{ShortCode: "174379", Passkey: "bfb279f9aa9b"}
	ts := time.Date(2026, 8, 29, 14, 5, 9, 0, time.UTC).Format(mpesaTimestampLayout)
	if ts != "20260829140509" {
		t.Fatalf("unexpected timestamp format %q", ts)
	}

	want := base64.StdEncoding.EncodeToString([]byte("174379bfb279f9aa9b" + ts))
	if got := c.stkPassword(ts); got != want {
		t.Fatalf("stkPassword = %q, want %q", got, want)
	}
}

func TestParseMpesaCallback_Success(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 1500.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	cb, err := ParseMpesaCallback(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if cb.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Fatalf("unexpected CheckoutRequestID %q", cb.CheckoutRequestID)
	}
	if !cb.Success() {
		t.Fatalf("expected ResultCode 0 to report success")
	}
	if cb.Amount != 1500 {
		t.Fatalf("unexpected amount %v", cb.Amount)
	}
	if cb.ReceiptNumber != "NLJ7RT61SV" {
		t.Fatalf("unexpected receipt %q", cb.ReceiptNumber)
	}
	if cb.PhoneNumber != "254712345678" {
		t.Fatalf("unexpected phone %q", cb.PhoneNumber)
	}
}

func TestParseMpesaCallback_Cancelled(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_cancelled",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`)

	cb, err := ParseMpesaCallback(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if cb.Success() {
		t.Fatalf("expected ResultCode 1032 not to report success")
	}
	if cb.ResultCode != MpesaResultCancelled {
		t.Fatalf("unexpected result code %d", cb.ResultCode)
	}
}

func TestParseMpesaCallback_BadEnvelope(t *testing.T) {
	if _, err := ParseMpesaCallback([]byte(`{"Body":{}}`)); err == nil {
		t.Fatalf("expected error for envelope without CheckoutRequestID")
	}
	if _, err := ParseMpesaCallback([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
