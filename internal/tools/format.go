package tools

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"stockagents/internal/adapters/stockdata"
)

const maxDescriptionLen = 600

// FormatQuote renders a quote as compact text for the model.
func FormatQuote(q *stockdata.Quote) string {
	var b strings.Builder

	currency := q.Currency
	if currency == "" {
		currency = "USD"
	}
	fmt.Fprintf(&b, "%s: %s %s\n", q.Symbol, money(q.Price), currency)

	if !q.Change.IsZero() || !q.ChangePercent.IsZero() {
		fmt.Fprintf(&b, "Change: %s (%s%%)\n", signed(q.Change), signed(q.ChangePercent))
	}

	var levels []string
	for _, l := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Open", q.Open}, {"High", q.High}, {"Low", q.Low}, {"Previous close", q.PreviousClose},
	} {
		if !l.value.IsZero() {
			levels = append(levels, fmt.Sprintf("%s: %s", l.label, money(l.value)))
		}
	}
	if len(levels) > 0 {
		b.WriteString(strings.Join(levels, " | "))
		b.WriteString("\n")
	}

	if q.Volume > 0 {
		fmt.Fprintf(&b, "Volume: %s\n", humanize.Comma(q.Volume))
	}
	if !q.Timestamp.IsZero() {
		fmt.Fprintf(&b, "As of: %s ", q.Timestamp.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(&b, "(source: %s)", q.Source)

	return b.String()
}

// FormatProfile renders a company profile as text for the model.
func FormatProfile(p *stockdata.Profile) string {
	var b strings.Builder

	name := p.Name
	if name == "" {
		name = p.Symbol
	}
	fmt.Fprintf(&b, "%s (%s)\n", name, p.Symbol)

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	field("Exchange", p.Exchange)
	field("Sector", p.Sector)
	field("Industry", p.Industry)
	field("Country", p.Country)
	if !p.MarketCap.IsZero() {
		field("Market cap", MarketCap(p.MarketCap, p.Currency))
	}
	if p.Employees > 0 {
		field("Employees", humanize.Comma(p.Employees))
	}
	field("Website", p.Website)
	field("Business summary", truncate(p.Description, maxDescriptionLen))
	fmt.Fprintf(&b, "(source: %s)", p.Source)

	return b.String()
}

var capUnits = []struct {
	suffix string
	unit   decimal.Decimal
}{
	{"T", decimal.New(1, 12)},
	{"B", decimal.New(1, 9)},
	{"M", decimal.New(1, 6)},
}

// MarketCap abbreviates a market capitalization, e.g. "$3.10T USD".
func MarketCap(value decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	for _, u := range capUnits {
		if value.Abs().GreaterThanOrEqual(u.unit) {
			return fmt.Sprintf("$%s%s %s", value.Div(u.unit).StringFixed(2), u.suffix, currency)
		}
	}
	return fmt.Sprintf("$%s %s", humanize.Comma(value.IntPart()), currency)
}

func money(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
