package agent

import (
	"sync"
	"time"
)

// TurnStat records one processed message.
type TurnStat struct {
	Capability   string
	Tool         string
	Model        string
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	Failed       bool
}

// Stats tracks timing and token usage for a session.
type Stats struct {
	mu          sync.Mutex
	StartTime   time.Time
	Turns       []TurnStat
	TotalTokens struct {
		Input  int
		Output int
	}
}

// NewStats creates a new stats tracker
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Record adds a finished turn.
func (s *Stats) Record(t TurnStat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Turns = append(s.Turns, t)
	s.TotalTokens.Input += t.InputTokens
	s.TotalTokens.Output += t.OutputTokens
}

// Elapsed returns total elapsed time
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// Count returns the number of recorded turns and how many of them failed.
func (s *Stats) Count() (total, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.Turns {
		if t.Failed {
			failed++
		}
	}
	return len(s.Turns), failed
}

// ToolUsage counts turns per tool; turns answered by the model alone count
// under "".
func (s *Stats) ToolUsage() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := make(map[string]int)
	for _, t := range s.Turns {
		usage[t.Tool]++
	}
	return usage
}

// Pricing per 1M tokens (input/output)
var pricing = map[string]struct{ Input, Output float64 }{
	"gpt-4o":        {2.50, 10.00},
	"gpt-4o-mini":   {0.15, 0.60},
	"gpt-4-turbo":   {10.00, 30.00},
	"gpt-3.5-turbo": {0.50, 1.50},
}

// EstimateCost calculates estimated cost based on token usage and model.
// Unknown models cost nothing.
func (s *Stats) EstimateCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totalCost float64
	for _, t := range s.Turns {
		if p, ok := pricing[t.Model]; ok {
			totalCost += float64(t.InputTokens)/1000000*p.Input + float64(t.OutputTokens)/1000000*p.Output
		}
	}
	return totalCost
}
