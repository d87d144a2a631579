package tools

import (
	"context"

	"Quill/internal/dataset"
	"Quill/internal/validate"
	"Quill/pkg/types"
)

// AnalysisTool computes statistics over the datasets found in a request.
type AnalysisTool struct {
	analyzer *dataset.Analyzer
}

// NewAnalysisTool creates the data_analysis tool.
func NewAnalysisTool(analyzer *dataset.Analyzer) *AnalysisTool {
	return &AnalysisTool{analyzer: analyzer}
}

func (a *AnalysisTool) Name() string {
	return types.ToolDataAnalysis
}

func (a *AnalysisTool) Capability() types.Capability {
	return types.DatasetAnalysis
}

func (a *AnalysisTool) Description() string {
	return "The MANDATORY tool for ANY dataset analysis. Always use it for numbers in square brackets [1, 2, 3], " +
		"requests for mean, median or standard deviation, multiple numbers in sequence, " +
		"datasets with an ellipsis [1, ..., 100] and dataset comparisons [1,2,3], [4,5,6].\n" +
		"Examples: 'Calculate mean of [1, 2, 3]', 'Find statistics for [23, 45, 67]', 'Get mean of numbers: 1, 2, 3'.\n" +
		"The query MUST include a dataset."
}

func (a *AnalysisTool) Execute(ctx context.Context, input string) (string, error) {
	if r := validate.NonEmpty(input); !r.Valid {
		return "", r.Err("tools.data_analysis")
	}
	return a.analyzer.Analyze(ctx, input)
}
