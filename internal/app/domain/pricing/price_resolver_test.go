package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTable() *Table {
	return NewTable(map[string]string{
		"BUSINESS_STANDARD_MONTHLY": "price_bsm",
		"BUSINESS_STANDARD_ANNUAL":  "price_bsa",
		"BUSINESS_PREMIUM_MONTHLY":  "price_bpm",
		"BUSINESS_PREMIUM_ANNUAL":   "price_bpa",
		"EVENT_FEATURED":            "price_ef",
		"EVENT_PREMIUM":             "price_ep",
		"SPONSOR_MEDIA_BUY_300":     "price_smb300",
	})
}

func TestResolve(t *testing.T) {
	table := fullTable()

	tests := []struct {
		name           string
		submissionType string
		tier           string
		billingCycle   string
		wantPrice      string
		wantOK         bool
	}{
		{name: "business annual", submissionType: "business", tier: "premium", billingCycle: "annual", wantPrice: "price_bpa", wantOK: true},
		{name: "business defaults to monthly", submissionType: "business", tier: "standard", wantPrice: "price_bsm", wantOK: true},
		{name: "business mixed case", submissionType: "business", tier: "Premium", billingCycle: "Monthly", wantPrice: "price_bpm", wantOK: true},
		{name: "business unconfigured tier", submissionType: "business", tier: "platinum", billingCycle: "annual", wantOK: false},
		{name: "business free has no price", submissionType: "business", tier: "free", wantOK: false},
		{name: "event ignores cycle", submissionType: "event", tier: "featured", billingCycle: "annual", wantPrice: "price_ef", wantOK: true},
		{name: "event unconfigured", submissionType: "event", tier: "spotlight", wantOK: false},
		{name: "sponsor normalized", submissionType: "sponsor", tier: "media-buy-300", wantPrice: "price_smb300", wantOK: true},
		{name: "sponsor spaces normalized", submissionType: "sponsor", tier: "media buy 300", wantPrice: "price_smb300", wantOK: true},
		{name: "sponsor unconfigured", submissionType: "sponsor", tier: "newsletter", wantOK: false},
		{name: "unknown type", submissionType: "venue", tier: "premium", billingCycle: "annual", wantOK: false},
		{name: "empty type", submissionType: "", tier: "premium", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			price, ok := table.Resolve(tc.submissionType, tc.tier, tc.billingCycle)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantPrice, price)
		})
	}
}

func TestKey(t *testing.T) {
	key, ok := Key("business", "premium", "annual")
	assert.True(t, ok)
	assert.Equal(t, "BUSINESS_PREMIUM_ANNUAL", key)

	key, ok = Key("sponsor", "media-buy-300", "")
	assert.True(t, ok)
	assert.Equal(t, "SPONSOR_MEDIA_BUY_300", key)

	key, ok = Key("event", "featured", "")
	assert.True(t, ok)
	assert.Equal(t, "EVENT_FEATURED", key)

	_, ok = Key("newsletter", "x", "")
	assert.False(t, ok)
}

func TestLoadFromEnv(t *testing.T) {
	table := LoadFromEnv([]string{
		"STRIPE_PRICE_BUSINESS_PREMIUM_ANNUAL=price_123",
		"STRIPE_PRICE_EVENT_FEATURED=  ",
		"STRIPE_SECRET_KEY=sk_test",
		"PATH=/usr/bin",
		"MALFORMED",
	})

	assert.Equal(t, []string{"BUSINESS_PREMIUM_ANNUAL"}, table.Keys())

	price, ok := table.Resolve("business", "premium", "annual")
	assert.True(t, ok)
	assert.Equal(t, "price_123", price)
}

func TestValidate(t *testing.T) {
	require.NoError(t, fullTable().Validate())

	err := NewTable(map[string]string{"BUSINESS_STANDARD_MONTHLY": "price_1"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUSINESS_PREMIUM_ANNUAL")
	assert.Contains(t, err.Error(), "EVENT_FEATURED")
	assert.NotContains(t, err.Error(), "BUSINESS_STANDARD_MONTHLY,")
}
