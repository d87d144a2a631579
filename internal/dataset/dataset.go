// Package dataset extracts numeric sequences from free text and produces
// descriptive statistics by running a generated script in the sandbox.
package dataset

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"Quill/internal/errs"
	"Quill/internal/sandbox"
)

// MaxExpansion caps how many values one ellipsis may produce.
const MaxExpansion = 100_000

// Dataset is an ordered sequence of finite numbers.
type Dataset []float64

// Request is the result of parsing one piece of text.
type Request struct {
	Datasets  []Dataset
	Bracketed bool
}

// Comparison reports whether the request compares several datasets.
func (r *Request) Comparison() bool {
	return len(r.Datasets) > 1
}

var (
	groupRe  = regexp.MustCompile(`\[([^\]]+)\]`)
	numberRe = regexp.MustCompile(`-?\d*\.?\d+`)
)

// Parse extracts every bracketed group of text as its own dataset. Without
// brackets, all numbers in the text form a single dataset. Each dataset is
// validated before it is returned.
func Parse(text string) (*Request, error) {
	const op = "dataset.parse"

	req := &Request{}
	if groups := groupRe.FindAllStringSubmatch(text, -1); len(groups) > 0 {
		req.Bracketed = true
		for i, g := range groups {
			d, err := ExpandEllipsis(g[1])
			if err != nil {
				return nil, errs.Wrap(errs.InvalidDataset, op, err, "Invalid dataset").With("dataset", i+1)
			}
			if err := Validate(d); err != nil {
				return nil, errs.Wrap(errs.InvalidDataset, op, err, "Invalid dataset").With("dataset", i+1)
			}
			req.Datasets = append(req.Datasets, d)
		}
		return req, nil
	}

	tokens := numberRe.FindAllString(text, -1)
	if len(tokens) == 0 {
		return nil, errs.New(errs.InvalidDataset, op, "No dataset found in query")
	}
	d := make(Dataset, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidDataset, op, err, "Dataset contains non-numeric values")
		}
		d = append(d, v)
	}
	if err := Validate(d); err != nil {
		return nil, err
	}
	req.Datasets = []Dataset{d}
	return req, nil
}

func isEllipsis(s string) bool {
	return s == "..." || s == "…"
}

// ExpandEllipsis parses a comma separated list. "a, ..., b" inserts every
// integer strictly between a and b, counting down when b < a; a and b
// themselves appear exactly once.
func ExpandEllipsis(list string) (Dataset, error) {
	const op = "dataset.expand"

	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var out Dataset
	for i, p := range parts {
		if isEllipsis(p) {
			if i == 0 || i == len(parts)-1 || isEllipsis(parts[i-1]) || isEllipsis(parts[i+1]) {
				return nil, errs.New(errs.InvalidDataset, op,
					"Invalid ellipsis format: '...' needs a number on both sides")
			}
			from := out[len(out)-1]
			to, err := strconv.ParseFloat(parts[i+1], 64)
			if err != nil {
				return nil, errs.Newf(errs.InvalidDataset, op, "Invalid ellipsis format: '%s' is not a number", parts[i+1])
			}
			fill, ferr := between(from, to, MaxExpansion-len(out))
			if ferr != nil {
				return nil, ferr
			}
			out = append(out, fill...)
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errs.Newf(errs.InvalidDataset, op, "Dataset contains non-numeric values: '%s'", p).With("value", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// between returns the integers strictly between from and to.
func between(from, to float64, limit int) (Dataset, *errs.Error) {
	var (
		start, step float64
		inRange     func(float64) bool
	)
	switch {
	case to > from:
		start, step = math.Floor(from)+1, 1
		inRange = func(k float64) bool { return k < to }
	case to < from:
		start, step = math.Ceil(from)-1, -1
		inRange = func(k float64) bool { return k > to }
	default:
		return nil, nil
	}
	if n := math.Abs(to - from); n > float64(limit) {
		return nil, errs.Newf(errs.InvalidDataset, "dataset.expand",
			"Dataset too large (max: %d values)", MaxExpansion).With("requested", n)
	}
	var out Dataset
	for k := start; inRange(k); k += step {
		out = append(out, k)
	}
	return out, nil
}

// Validate enforces the preconditions of every statistic.
func Validate(d Dataset) error {
	const op = "dataset.validate"
	if len(d) == 0 {
		return errs.New(errs.InvalidDataset, op, "Dataset is empty")
	}
	if len(d) < 2 {
		return errs.New(errs.InvalidDataset, op, "Dataset must contain at least 2 values for statistical analysis").
			With("length", len(d))
	}
	for i, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.InvalidDataset, op, "Dataset contains non-numeric values").With("index", i)
		}
	}
	return nil
}

// Trend compares the last value with the first. It is a two-point
// comparison, not a regression.
func Trend(d Dataset) string {
	if len(d) > 0 && d[len(d)-1] > d[0] {
		return "increasing"
	}
	return "decreasing"
}

func literal(d Dataset) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range d {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Program renders the script that computes the statistics of req.
func Program(req *Request) string {
	var sb strings.Builder
	if !req.Comparison() {
		d := req.Datasets[0]
		fmt.Fprintf(&sb, "dataset := %s\n", literal(d))
		fmt.Fprintf(&sb, "trend := %q\n", Trend(d))
		sb.WriteString(`printf("Dataset Analysis:\n")
printf("Mean: %.2f\n", mean(dataset))
printf("Median: %.2f\n", median(dataset))
printf("Standard Deviation: %.2f\n", stdev(dataset))
printf("Min: %.2f\n", min(dataset))
printf("Max: %.2f\n", max(dataset))
printf("Trend: %s\n", trend)
`)
		return sb.String()
	}

	sb.WriteString("datasets := [")
	trends := make([]string, len(req.Datasets))
	for i, d := range req.Datasets {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(literal(d))
		trends[i] = strconv.Quote(Trend(d))
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "trends := [%s]\n", strings.Join(trends, ", "))
	sb.WriteString(`printf("Dataset Comparisons:\n")
for i, d in datasets {
	printf("Dataset %d:\n", i + 1)
	printf("  Mean: %.2f\n", mean(d))
	printf("  Median: %.2f\n", median(d))
	printf("  Standard Deviation: %.2f\n", stdev(d))
	printf("  Min: %.2f\n", min(d))
	printf("  Max: %.2f\n", max(d))
	printf("  Trend: %s\n", trends[i])
}
`)
	return sb.String()
}

// Analyzer runs dataset statistics through a script executor.
type Analyzer struct {
	exec *sandbox.Executor
}

// NewAnalyzer creates an Analyzer backed by exec.
func NewAnalyzer(exec *sandbox.Executor) *Analyzer {
	return &Analyzer{exec: exec}
}

// Analyze parses text and returns the formatted statistics. Each call runs
// in a fresh namespace so analyses never touch the conversation's context.
func (a *Analyzer) Analyze(ctx context.Context, text string) (string, error) {
	req, err := Parse(text)
	if err != nil {
		return "", err
	}
	out, err := a.exec.Execute(ctx, sandbox.NewContext("dataset"), Program(req))
	if err != nil {
		return "", errs.Wrap(errs.ToolError, "dataset.analyze", err, "Statistical analysis failed")
	}
	return out, nil
}
