package ai

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ProviderUsage captures usage for one provider/model pair.
type ProviderUsage struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Requests     int64           `json:"requests"`
	InputTokens  int64           `json:"input_tokens"`
	OutputTokens int64           `json:"output_tokens"`
	CostUSD      decimal.Decimal `json:"cost_usd"`
}

// UsageTracker tracks token and cost usage per provider/model.
type UsageTracker struct {
	mu    sync.Mutex
	usage map[string]*ProviderUsage
}

// NewUsageTracker creates a new tracker instance.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{usage: make(map[string]*ProviderUsage)}
}

// Record calculates cost based on model pricing and records the usage.
func (t *UsageTracker) Record(model ModelInfo, inputTokens int64, outputTokens int64) ProviderUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := fmt.Sprintf("%s:%s", model.Provider, model.Name)
	entry, ok := t.usage[key]
	if !ok {
		entry = &ProviderUsage{Model: model.Name, Provider: model.Provider.String()}
		t.usage[key] = entry
	}

	entry.Requests++
	entry.InputTokens += inputTokens
	entry.OutputTokens += outputTokens
	entry.CostUSD = entry.CostUSD.Add(calculateCost(model, inputTokens, outputTokens))

	return *entry
}

// Snapshot returns usage entries sorted by provider and model.
func (t *UsageTracker) Snapshot() []ProviderUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ProviderUsage, 0, len(t.usage))
	for _, v := range t.usage {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})

	return out
}

// TotalCost sums the cost of every recorded request.
func (t *UsageTracker) TotalCost() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := decimal.Zero
	for _, v := range t.usage {
		total = total.Add(v.CostUSD)
	}
	return total
}

var thousand = decimal.NewFromInt(1000)

func calculateCost(model ModelInfo, inputTokens int64, outputTokens int64) decimal.Decimal {
	in := decimal.NewFromInt(inputTokens).Div(thousand).Mul(decimal.NewFromFloat(model.InputCostPer1K))
	out := decimal.NewFromInt(outputTokens).Div(thousand).Mul(decimal.NewFromFloat(model.OutputCostPer1K))
	return in.Add(out)
}
