package tools

// Tool names
const (
	ToolGetStockPrice  = "get_stock_price"
	ToolGetCompanyInfo = "get_company_info"
)

// Definition describes a tool's metadata for registration and documentation.
type Definition struct {
	Name        string
	Description string
	Category    string
}

// toolDefinitions enumerates the stock tools in the order agents see them.
var toolDefinitions = []Definition{
	{
		Name:        ToolGetStockPrice,
		Description: "Get the current price, daily change, trading range and volume of a stock by ticker symbol",
		Category:    "market_data",
	},
	{
		Name:        ToolGetCompanyInfo,
		Description: "Get company information for a ticker symbol: name, exchange, sector, industry, market cap and business summary",
		Category:    "fundamentals",
	},
}

// Catalog returns every known tool definition.
func Catalog() []Definition {
	out := make([]Definition, len(toolDefinitions))
	copy(out, toolDefinitions)
	return out
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, bool) {
	for _, def := range toolDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
