// Package pricing maps (submission type, tier, billing cycle) to payment processor price identifiers.
package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
)

// EnvPrefix is prepended to every price key when reading the environment.
const EnvPrefix = "STRIPE_PRICE_"

// RequiredKeys is the catalog of paid tiers that must have a price before checkout can be enabled.
// Sponsor packages are open-ended and therefore optional.
var RequiredKeys = []string{
	"BUSINESS_STANDARD_MONTHLY",
	"BUSINESS_STANDARD_ANNUAL",
	"BUSINESS_PREMIUM_MONTHLY",
	"BUSINESS_PREMIUM_ANNUAL",
	"EVENT_FEATURED",
	"EVENT_PREMIUM",
}

// Table is an immutable price lookup built once at startup.
type Table struct {
	prices map[string]string
}

// NewTable builds a table from already-normalized keys (e.g. "BUSINESS_PREMIUM_ANNUAL").
func NewTable(prices map[string]string) *Table {
	t := &Table{prices: make(map[string]string, len(prices))}
	for k, v := range prices {
		if v = strings.TrimSpace(v); v != "" {
			t.prices[strings.ToUpper(k)] = v
		}
	}
	return t
}

// LoadFromEnv collects every STRIPE_PRICE_* variable from environ (usually os.Environ()).
func LoadFromEnv(environ []string) *Table {
	prices := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		prices[strings.TrimPrefix(name, EnvPrefix)] = value
	}
	return NewTable(prices)
}

// LoadDefault is LoadFromEnv over the process environment.
func LoadDefault() *Table {
	return LoadFromEnv(os.Environ())
}

// Key builds the lookup key for a combination. ok is false for unsupported submission types.
func Key(submissionType, tier, billingCycle string) (string, bool) {
	switch models.SubmissionType(submissionType) {
	case models.SubmissionTypeBusiness:
		if billingCycle == "" {
			billingCycle = models.BillingCycleMonthly
		}
		return "BUSINESS_" + strings.ToUpper(tier) + "_" + strings.ToUpper(billingCycle), true
	case models.SubmissionTypeEvent:
		return "EVENT_" + strings.ToUpper(tier), true
	case models.SubmissionTypeSponsor:
		return "SPONSOR_" + normalizeSponsorTier(tier), true
	default:
		return "", false
	}
}

// Resolve returns the configured price for the combination. A false result means
// misconfiguration, not "no charge".
func (t *Table) Resolve(submissionType, tier, billingCycle string) (string, bool) {
	key, ok := Key(submissionType, tier, billingCycle)
	if !ok {
		return "", false
	}
	priceID, ok := t.prices[key]
	return priceID, ok
}

// Keys lists configured keys in sorted order.
func (t *Table) Keys() []string {
	keys := lo.Keys(t.prices)
	sort.Strings(keys)
	return keys
}

// Validate fails when any of RequiredKeys is absent.
func (t *Table) Validate() error {
	missing := lo.Filter(RequiredKeys, func(key string, _ int) bool {
		_, ok := t.prices[key]
		return !ok
	})
	if len(missing) > 0 {
		return fmt.Errorf("missing price configuration for %s (set %s<KEY>)", strings.Join(missing, ", "), EnvPrefix)
	}
	return nil
}

func normalizeSponsorTier(tier string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, tier)
}
