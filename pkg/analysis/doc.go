// Package analysis implements the stock-analysis workflow: a data
// collection node fans out to three analyst nodes (fundamentals, news,
// technicals) whose findings a report node combines into one investment
// report. The graph structure does the parallelism; each node is a plain
// function over the shared state.
package analysis
