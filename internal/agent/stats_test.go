package agent

import (
	"math"
	"testing"
	"time"
)

func TestStats(t *testing.T) {
	s := NewStats()
	s.Record(TurnStat{Tool: "calculator", Duration: time.Millisecond})
	s.Record(TurnStat{Model: "gpt-4o-mini", InputTokens: 1_000_000, OutputTokens: 1_000_000})
	s.Record(TurnStat{Tool: "calculator", Failed: true})
	s.Record(TurnStat{Model: "unknown-model", InputTokens: 500, OutputTokens: 500})

	total, failed := s.Count()
	if total != 4 || failed != 1 {
		t.Errorf("Count = %d, %d, want 4, 1", total, failed)
	}
	if s.TotalTokens.Input != 1_000_500 || s.TotalTokens.Output != 1_000_500 {
		t.Errorf("TotalTokens = %+v", s.TotalTokens)
	}

	usage := s.ToolUsage()
	if usage["calculator"] != 2 || usage[""] != 2 {
		t.Errorf("ToolUsage = %v", usage)
	}

	if cost := s.EstimateCost(); math.Abs(cost-0.75) > 1e-9 {
		t.Errorf("EstimateCost = %v, want 0.75", cost)
	}
	if s.Elapsed() <= 0 {
		t.Error("Elapsed should be positive")
	}
}
