package payments

import (
	"errors"
	"testing"
)

func TestNormalizeKenyanPhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0712345678", want: "254712345678"},
		{in: "712345678", want: "254712345678"},
		{in: "254712345678", want: "254712345678"},
		{in: "+254712345678", want: "254712345678"},
		{in: "  0712345678  ", want: "254712345678"},
		{in: "0112345678", want: "254112345678"},
		{in: "0712 345 678", wantErr: true},
		{in: "12345", wantErr: true},
		{in: "1712345678", wantErr: true},
		{in: "44712345678", wantErr: true},
		{in: "", wantErr: true},
		{in: "07123456789", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizeKenyanPhone(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Fatalf("NormalizeKenyanPhone(%q) error = %v, want ErrInvalidPhone", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeKenyanPhone(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("NormalizeKenyanPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
