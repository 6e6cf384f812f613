package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// Money is an amount in a currency as returned by the Storefront API
type Money struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// NewMoney parses a decimal string amount; an unparsable amount yields zero
func NewMoney(amount, currency string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		d = decimal.Zero
	}
	return Money{Amount: d, CurrencyCode: currency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Fixed renders "1250.00 EUR", the form merchant feeds expect
func (m Money) Fixed() string {
	return m.Amount.StringFixed(2) + " " + m.CurrencyCode
}

// String renders the amount for display, e.g. "€1,250.00"
func (m Money) String() string {
	fixed := m.Amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if m.Amount.IsNegative() {
		out = "-" + out
	}
	if sym, ok := currencySymbols[m.CurrencyCode]; ok {
		return sym + out
	}
	if m.CurrencyCode == "" {
		return out
	}
	return out + " " + m.CurrencyCode
}

type moneyJSON struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = NewMoney(raw.Amount, raw.CurrencyCode)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Amount.String(), CurrencyCode: m.CurrencyCode})
}
