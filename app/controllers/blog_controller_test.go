package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Weekly Market Outlook":          "weekly-market-outlook",
		"  BTC/USDT: What's Next?  ":     "btc-usdt-what-s-next",
		"Already-a-slug":                 "already-a-slug",
		"Trading 101 — Risk Management!": "trading-101-risk-management",
	}
	for title, want := range cases {
		assert.Equal(t, want, slugify(title), "title %q", title)
	}
}
