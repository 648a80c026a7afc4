package agents

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"stockagents/internal/adapters/ai"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// Classification is a routing decision with its explanation.
type Classification struct {
	Route Route
	// Confidence is how sure the classifier is (0.0-1.0).
	Confidence float64
	// Reason explains why this route was selected.
	Reason string
	// MatchedKeyword is the keyword that triggered the decision (if any).
	MatchedKeyword string
	// Symbols are the ticker-like tokens found in the query.
	Symbols []string
}

// Classifier decides which sub-agents answer a query.
type Classifier interface {
	Classify(ctx context.Context, query string) (Classification, error)
}

// RouteKeywords is the single source of truth for keyword routing.
type RouteKeywords struct {
	// Junior keywords indicate a factual lookup about one ticker.
	Junior []string
	// Master keywords indicate analysis, comparison, portfolio or research work.
	Master []string
}

// DefaultRouteKeywords returns the keyword mappings used by KeywordClassifier.
var DefaultRouteKeywords = RouteKeywords{
	Junior: []string{
		"price",
		"quote",
		"trading at",
		"how much",
		"info",
		"profile",
		"market cap",
		"ceo",
		"headquarter",
		"employees",
	},
	Master: []string{
		"analy", // analysis, analyze, analyse
		"compare",
		"comparison",
		" vs ",
		" vs.",
		"versus",
		"portfolio",
		"research",
		"comprehensive",
		"in-depth",
		"deep dive",
		"outlook",
		"forecast",
		"valuation",
		"recommend",
		"should i",
		"worth",
		"invest",
		"trend",
		"sector",
		"industry",
	},
}

var (
	tickerPattern = regexp.MustCompile(`\$?\b[A-Z]{1,5}(?:\.[A-Z])?\b`)

	// Upper-case words that are not tickers.
	tickerStopwords = map[string]bool{
		"I": true, "A": true, "AN": true, "AND": true, "OR": true, "THE": true, "OF": true,
		"FOR": true, "TO": true, "IN": true, "ON": true, "IS": true, "IT": true, "ME": true,
		"MY": true, "US": true, "USA": true, "USD": true, "EUR": true, "CEO": true, "CFO": true,
		"IPO": true, "ETF": true, "EPS": true, "PE": true, "AI": true, "EV": true, "EVS": true,
		"VS": true, "Q": true, "YTD": true, "NYSE": true, "OK": true,
	}

	// Plain words that only look like tickers when the whole query is upper case.
	// Some are listed symbols (NOW, LOW), which still match with a "$" prefix.
	shoutedWords = map[string]bool{
		"WHAT": true, "WHATS": true, "WHO": true, "HOW": true, "WHY": true, "WHEN": true,
		"WHERE": true, "WHICH": true, "ARE": true, "WAS": true, "BE": true, "DO": true,
		"DOES": true, "DID": true, "CAN": true, "WILL": true, "HAS": true, "HAVE": true,
		"GET": true, "GIVE": true, "SHOW": true, "TELL": true, "FIND": true, "CHECK": true,
		"LOOK": true, "UP": true, "AT": true, "BY": true, "WITH": true, "FROM": true,
		"ABOUT": true, "INTO": true, "THIS": true, "THAT": true, "ITS": true, "THEIR": true,
		"PRICE": true, "QUOTE": true, "STOCK": true, "SHARE": true, "CAP": true,
		"MUCH": true, "MANY": true, "INFO": true, "DATA": true, "NEWS": true,
		"NOW": true, "TODAY": true, "DAY": true, "WEEK": true, "YEAR": true,
		"HIGH": true, "LOW": true, "OPEN": true, "CLOSE": true, "LAST": true, "NEXT": true,
		"BUY": true, "SELL": true, "HOLD": true, "WORTH": true, "GOOD": true, "BEST": true,
		"TOP": true, "TREND": true,
	}
)

// ExtractSymbols returns distinct ticker-like tokens in order of appearance.
// In an all upper-case query plain English words are skipped unless "$"-prefixed.
func ExtractSymbols(query string) []string {
	shouted := strings.ToUpper(query) == query
	seen := make(map[string]bool)
	var out []string
	for _, m := range tickerPattern.FindAllString(query, -1) {
		sym := strings.TrimPrefix(m, "$")
		if seen[sym] {
			continue
		}
		if sym == m && (tickerStopwords[sym] || shouted && shoutedWords[sym]) {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// KeywordClassifier routes on keywords and the number of tickers mentioned.
type KeywordClassifier struct {
	keywords RouteKeywords
}

// NewKeywordClassifier creates a classifier over DefaultRouteKeywords.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: DefaultRouteKeywords}
}

// Classify never fails.
func (c *KeywordClassifier) Classify(_ context.Context, query string) (Classification, error) {
	return c.classify(query), nil
}

func (c *KeywordClassifier) classify(query string) Classification {
	lower := " " + strings.ToLower(query) + " "
	symbols := ExtractSymbols(query)

	masterKw := firstMatch(lower, c.keywords.Master)
	juniorKw := firstMatch(lower, c.keywords.Junior)

	switch {
	case len(symbols) > 1:
		return Classification{
			Route:          RouteMaster,
			Confidence:     0.9,
			Reason:         "query mentions several symbols",
			MatchedKeyword: masterKw,
			Symbols:        symbols,
		}
	case masterKw != "" && juniorKw != "":
		return Classification{
			Route:          RouteBoth,
			Confidence:     0.6,
			Reason:         "query mixes a factual lookup with analysis",
			MatchedKeyword: juniorKw + "+" + strings.TrimSpace(masterKw),
			Symbols:        symbols,
		}
	case masterKw != "":
		return Classification{
			Route:          RouteMaster,
			Confidence:     0.85,
			Reason:         "matched analysis keyword",
			MatchedKeyword: strings.TrimSpace(masterKw),
			Symbols:        symbols,
		}
	case juniorKw != "":
		return Classification{
			Route:          RouteJunior,
			Confidence:     0.85,
			Reason:         "matched factual lookup keyword",
			MatchedKeyword: juniorKw,
			Symbols:        symbols,
		}
	case len(symbols) == 1:
		return Classification{
			Route:      RouteJunior,
			Confidence: 0.6,
			Reason:     "single symbol without analysis request",
			Symbols:    symbols,
		}
	default:
		// Open-ended questions need the broader reasoning of the master agent.
		return Classification{
			Route:      RouteMaster,
			Confidence: 0.5,
			Reason:     "no keyword matched",
			Symbols:    symbols,
		}
	}
}

func firstMatch(lower string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

// LLMClassifier asks the model for a route and falls back to keywords when the
// call fails or the reply cannot be parsed.
type LLMClassifier struct {
	cfg      AgentConfig
	deps     Deps
	fallback *KeywordClassifier
	log      *logger.Logger
}

// NewLLMClassifier creates a model-backed classifier using the orchestrator prompt.
func NewLLMClassifier(cfg AgentConfig, deps Deps) (*LLMClassifier, error) {
	if err := deps.validate(); err != nil {
		return nil, errors.Wrap(err, "create llm classifier")
	}
	return &LLMClassifier{
		cfg:      cfg,
		deps:     deps,
		fallback: NewKeywordClassifier(),
		log:      logger.Get().With("component", "classifier", "kind", "llm"),
	}, nil
}

type routeReply struct {
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

// Classify returns the model's route, or the keyword route on any failure.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (Classification, error) {
	classification, err := c.ask(ctx, query)
	if err != nil {
		c.log.Warnw("LLM routing failed, using keywords", "error", err)
		return c.fallback.classify(query), nil
	}
	return classification, nil
}

func (c *LLMClassifier) ask(ctx context.Context, query string) (Classification, error) {
	system, err := c.deps.prompts().Render(c.cfg.SystemPromptTemplate, nil)
	if err != nil {
		return Classification{}, errors.Wrap(err, "render orchestrator prompt")
	}

	resp, err := c.deps.Provider.Chat(ctx, ai.ChatRequest{
		Model:       c.deps.Model,
		System:      system,
		Messages:    []ai.Message{ai.UserMessage(query)},
		Temperature: c.cfg.Temperature,
		MaxTokens:   256,
	})
	if err != nil {
		return Classification{}, err
	}

	reply, err := parseRouteReply(resp.Message.Content)
	if err != nil {
		return Classification{}, err
	}
	route, ok := ParseRoute(strings.ToLower(strings.TrimSpace(reply.Route)))
	if !ok {
		return Classification{}, errors.NewValidationError("route", "unknown route", reply.Route)
	}

	return Classification{
		Route:      route,
		Confidence: 0.8,
		Reason:     reply.Reason,
		Symbols:    ExtractSymbols(query),
	}, nil
}

// parseRouteReply extracts the first JSON object, tolerating code fences and prose.
func parseRouteReply(content string) (routeReply, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return routeReply{}, errors.Wrapf(errors.ErrInvalidInput, "no JSON object in %q", content)
	}

	var reply routeReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return routeReply{}, errors.Wrap(err, "decode route reply")
	}
	return reply, nil
}

// NewClassifier builds the classifier named by kind ("keyword" or "llm").
func NewClassifier(kind string, cfg AgentConfig, deps Deps) (Classifier, error) {
	switch kind {
	case "", "keyword":
		return NewKeywordClassifier(), nil
	case "llm":
		return NewLLMClassifier(cfg, deps)
	default:
		return nil, errors.NewValidationError("classifier", "must be keyword or llm", kind)
	}
}
