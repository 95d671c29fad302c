package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/dsl"
	"github.com/arbored/weft/pkg/llm"
	"github.com/arbored/weft/pkg/market"
)

// GraphName identifies the pipeline in run records and metrics.
const GraphName = "stock-analysis"

// agentRoles are the system prompts for each analyst node.
var agentRoles = map[string]string{
	NodeCollect:    "Expert in collecting financial data and historical prices",
	NodeFinancials: "CFA-certified financial analyst expert in fundamental analysis",
	NodeNews:       "Financial news analyst expert in market sentiment and NLP",
	NodeTechnicals: "You are an expert technical analyst specialized in chart patterns, moving averages, and technical indicators.",
	NodeReport:     "Senior investment analyst and report writer",
}

// Pipeline wires the data source and the model into the workflow nodes.
type Pipeline struct {
	source market.DataSource
	model  llm.Chatter
	logger *slog.Logger
	now    func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the node-level logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source. Used by tests to pin the news
// recency window.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline builds the pipeline over a data source and a chat model.
func NewPipeline(source market.DataSource, model llm.Chatter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source: source,
		model:  model,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Graph compiles the workflow: collect fans out to the three analysts,
// which fan back into the report node.
func (p *Pipeline) Graph() (*domain.Graph, error) {
	b := dsl.New(GraphName)

	b.Add(NodeCollect, p.collectData).
		Produces(FieldHistory, FieldFinancials, FieldNews)
	b.Add(NodeFinancials, p.analyzeFinancials).
		After(NodeCollect).
		Produces(FieldFinancialAnalysis)
	b.Add(NodeNews, p.analyzeNews).
		After(NodeCollect).
		Produces(FieldNewsAnalysis)
	b.Add(NodeTechnicals, p.analyzeTechnicals).
		After(NodeCollect).
		Produces(FieldTechnicalAnalysis)
	b.Add(NodeReport, p.generateReport).
		After(NodeFinancials, NodeNews, NodeTechnicals).
		Produces(FieldReport).
		Then(domain.End)

	return b.Build()
}

func symbolFrom(snap domain.Snapshot) (string, error) {
	symbol, ok := snap[FieldSymbol].(string)
	if !ok || symbol == "" {
		return "", fmt.Errorf("state field %q must be a non-empty string", FieldSymbol)
	}
	return symbol, nil
}

func (p *Pipeline) collectData(ctx context.Context, snap domain.Snapshot) (domain.Delta, error) {
	symbol, err := symbolFrom(snap)
	if err != nil {
		return nil, err
	}
	p.logger.Info("collecting data", "symbol", symbol)

	bars, err := p.source.History(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	financials, err := p.source.Financials(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching financials: %w", err)
	}

	news, err := p.source.News(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}

	return domain.Delta{
		FieldHistory:    bars,
		FieldFinancials: financials,
		FieldNews:       news,
	}, nil
}

func (p *Pipeline) analyzeFinancials(ctx context.Context, snap domain.Snapshot) (domain.Delta, error) {
	symbol, err := symbolFrom(snap)
	if err != nil {
		return nil, err
	}
	financials, _ := snap[FieldFinancials].(*market.Financials)
	p.logger.Info("analyzing financials", "symbol", symbol)

	prompt := fmt.Sprintf(
		"Please provide a detailed analysis of the following financial data for %s. "+
			"Include an evaluation of profitability, liquidity, and solvency, and highlight any significant trends or red flags. "+
			"Data: %s",
		symbol, formatFinancials(financials))

	reply, err := p.model.Chat(ctx, agentRoles[NodeFinancials], prompt)
	if err != nil {
		return nil, fmt.Errorf("financial analysis: %w", err)
	}
	return domain.Delta{FieldFinancialAnalysis: reply}, nil
}

func (p *Pipeline) analyzeNews(ctx context.Context, snap domain.Snapshot) (domain.Delta, error) {
	symbol, err := symbolFrom(snap)
	if err != nil {
		return nil, err
	}
	news, _ := snap[FieldNews].([]market.NewsItem)
	recent := recentNews(news, p.now())
	p.logger.Info("analyzing news", "symbol", symbol, "articles", len(recent))

	prompt := fmt.Sprintf(
		"Please analyze the following news articles related to %s. "+
			"Provide a summary of the prevailing market sentiment, key themes, and potential impacts on the stock's performance. "+
			"News Articles:\n%s",
		symbol, formatNews(recent))

	reply, err := p.model.Chat(ctx, agentRoles[NodeNews], prompt)
	if err != nil {
		return nil, fmt.Errorf("news analysis: %w", err)
	}
	return domain.Delta{FieldNewsAnalysis: reply}, nil
}

func (p *Pipeline) analyzeTechnicals(ctx context.Context, snap domain.Snapshot) (domain.Delta, error) {
	symbol, err := symbolFrom(snap)
	if err != nil {
		return nil, err
	}
	bars, _ := snap[FieldHistory].([]market.Bar)
	p.logger.Info("analyzing technicals", "symbol", symbol, "bars", len(bars))

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Based on the following historical price data (date and closing price) for %s, "+
			"please perform a detailed technical analysis. Consider the following points:\n"+
			"1. Identify short-term trends and patterns.\n"+
			"2. Evaluate the moving averages and their crossovers.\n"+
			"3. Highlight potential support and resistance levels.\n"+
			"4. Comment on the RSI and any other relevant indicators.\n\n",
		symbol)

	fmt.Fprintf(&sb, "Computed indicators:\n")
	for _, window := range []int{10, 30, 50, 200} {
		if sma := SMA(closes, window); sma > 0 {
			fmt.Fprintf(&sb, "  SMA(%d): %.2f\n", window, sma)
		}
	}
	if rsi := RSI(closes, 14); rsi > 0 {
		fmt.Fprintf(&sb, "  RSI(14): %.1f\n", rsi)
	}

	sb.WriteString("\nData sample:\n")
	sb.WriteString(formatBars(lastBars(bars, 90)))

	reply, err := p.model.Chat(ctx, agentRoles[NodeTechnicals], sb.String())
	if err != nil {
		return nil, fmt.Errorf("technical analysis: %w", err)
	}
	return domain.Delta{FieldTechnicalAnalysis: reply}, nil
}

func (p *Pipeline) generateReport(ctx context.Context, snap domain.Snapshot) (domain.Delta, error) {
	symbol, err := symbolFrom(snap)
	if err != nil {
		return nil, err
	}
	bars, _ := snap[FieldHistory].([]market.Bar)
	p.logger.Info("generating report", "symbol", symbol)

	prompt := fmt.Sprintf(`Stock: %s

Financial Analysis Summary:
%s

News Analysis Summary:
%s

Technical Analysis Summary:
%s

Historical Price Data Snapshot (last 90 records):
%s

Based on the above information, generate a comprehensive investment report that includes:
1. An overview of the company's financial health and performance trends.
2. Key takeaways from recent news and market sentiment.
3. A technical analysis of price trends, highlighting any support/resistance levels or patterns.
4. A thorough risk assessment addressing both market-wide and company-specific risks.
5. A clear investment recommendation supported by your analysis.

Ensure the report is structured, concise, and provides actionable insights.`,
		symbol,
		snap[FieldFinancialAnalysis],
		snap[FieldNewsAnalysis],
		snap[FieldTechnicalAnalysis],
		formatBars(lastBars(bars, 90)))

	reply, err := p.model.Chat(ctx, agentRoles[NodeReport], prompt)
	if err != nil {
		return nil, fmt.Errorf("report generation: %w", err)
	}
	return domain.Delta{FieldReport: reply}, nil
}

func lastBars(bars []market.Bar, n int) []market.Bar {
	if len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

func formatBars(bars []market.Bar) string {
	var sb strings.Builder
	for _, bar := range bars {
		fmt.Fprintf(&sb, "%s close=%.2f\n", bar.Date.Format("2006-01-02"), bar.Close)
	}
	return sb.String()
}

func formatNews(items []market.NewsItem) string {
	if len(items) == 0 {
		return "(no recent articles)"
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- [%s] %s", item.PublishedAt.Format("2006-01-02"), item.Title)
		if item.Summary != "" {
			fmt.Fprintf(&sb, ": %s", item.Summary)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatFinancials(f *market.Financials) string {
	if f.Empty() {
		return "(no statement data available)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "periods: %s\n", strings.Join(f.Periods, ", "))

	metrics := make([]string, 0, len(f.Metrics))
	for name := range f.Metrics {
		metrics = append(metrics, name)
	}
	// Stable ordering keeps prompts reproducible.
	sort.Strings(metrics)
	for _, name := range metrics {
		fmt.Fprintf(&sb, "%s: %v\n", name, f.Metrics[name])
	}
	return sb.String()
}
