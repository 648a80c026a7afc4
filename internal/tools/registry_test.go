package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/pkg/errors"
)

func echoTool(name string) Tool {
	return New(name, name+" description", func(ctx context.Context, symbol string) (string, error) {
		return name + ":" + symbol, nil
	})
}

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry(echoTool("get_stock_price"), echoTool("get_company_info"))
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		tool, ok := registry.Get("get_company_info")
		require.True(t, ok)
		out, err := tool.Invoke(context.Background(), "MSFT")
		require.NoError(t, err)
		assert.Equal(t, "get_company_info:MSFT", out)

		_, ok = registry.Get("unknown_tool")
		assert.False(t, ok)
	})

	t.Run("keeps registration order", func(t *testing.T) {
		assert.Equal(t, []string{"get_stock_price", "get_company_info"}, registry.List())
		assert.Equal(t, 2, registry.Len())
	})

	t.Run("Descriptors", func(t *testing.T) {
		assert.Equal(t, []Descriptor{
			{Name: "get_stock_price", Description: "get_stock_price description"},
			{Name: "get_company_info", Description: "get_company_info description"},
		}, registry.Descriptors())
	})

	t.Run("Definitions", func(t *testing.T) {
		defs := registry.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, "get_stock_price", defs[0].Name)
		assert.Equal(t, []string{"symbol"}, defs[0].Parameters["required"])
	})
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(echoTool("a"), echoTool("a"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewRegistry(echoTool(""))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNilRegistryIsEmpty(t *testing.T) {
	var registry *Registry
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.Descriptors())
	_, ok := registry.Get("x")
	assert.False(t, ok)
}

func TestFunctionToolWithoutHandler(t *testing.T) {
	_, err := New("broken", "", nil).Invoke(context.Background(), "AAPL")
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestCatalogLookup(t *testing.T) {
	def, ok := Lookup(ToolGetStockPrice)
	require.True(t, ok)
	assert.Equal(t, "market_data", def.Category)
	assert.Len(t, Catalog(), 2)
}
