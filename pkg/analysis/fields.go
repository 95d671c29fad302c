package analysis

// State field names shared by the pipeline nodes. The symbol is the only
// input; everything else is produced during the run.
const (
	FieldSymbol            = "stock_symbol"
	FieldHistory           = "historical_data"
	FieldFinancials        = "financials"
	FieldNews              = "news"
	FieldFinancialAnalysis = "financial_analysis"
	FieldNewsAnalysis      = "news_analysis"
	FieldTechnicalAnalysis = "technical_analysis"
	FieldReport            = "report"
)

// Node names, exported so callers can map events and errors back to steps.
const (
	NodeCollect    = "data_collector"
	NodeFinancials = "financial_analyst"
	NodeNews       = "news_analyst"
	NodeTechnicals = "technical_analyst"
	NodeReport     = "report_generator"
)
