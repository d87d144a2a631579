package query

import (
	"errors"
	"testing"

	"Quill/internal/errs"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		input    string
		expected Search
	}{
		{"python programming", Search{"python programming", 5, "en", "us"}},
		{"machine learning|3", Search{"machine learning", 3, "en", "us"}},
		{"paris tourism|5|fr|fr", Search{"paris tourism", 5, "fr", "fr"}},
		{" golang | 10 ", Search{"golang", 10, "en", "us"}},
		{"golang||de", Search{"golang", 5, "de", "us"}},
	}

	for _, tt := range tests {
		got, err := ParseSearch(tt.input)
		if err != nil {
			t.Errorf("ParseSearch(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseSearch(%q) = %+v, want %+v", tt.input, got, tt.expected)
		}
	}
}

func TestParseSearchFailures(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"a|1|en|us|extra", searchFormat},
		{"go|1", "Query too short (minimum 3 characters)"},
		{"golang|0", "Number of results must be between 1 and 10"},
		{"golang|11", "Number of results must be between 1 and 10"},
		{"golang|many", "Invalid number of results"},
		{"golang|5|eng", "Language code must be 2 characters (e.g., 'en')"},
		{"golang|5|en|usa", "Country code must be 2 characters (e.g., 'us')"},
		{"???|5", "Invalid query format"},
	}

	for _, tt := range tests {
		_, err := ParseSearch(tt.input)
		if err == nil {
			t.Errorf("ParseSearch(%q) expected error", tt.input)
			continue
		}
		if !errors.Is(err, errs.ValidationError) {
			t.Errorf("ParseSearch(%q) kind = %v", tt.input, errs.KindOf(err))
		}
		var e *errs.Error
		if errors.As(err, &e) && e.Message != tt.msg {
			t.Errorf("ParseSearch(%q) message = %q, want %q", tt.input, e.Message, tt.msg)
		}
	}
}

func TestParseEncyclopedia(t *testing.T) {
	tests := []struct {
		input    string
		expected Encyclopedia
	}{
		{"Albert Einstein", Encyclopedia{"Albert Einstein", 1, "en"}},
		{"Einstein|3", Encyclopedia{"Einstein", 3, "en"}},
		{"Tokyo|2|ja", Encyclopedia{"Tokyo", 2, "ja"}},
		{"Tokyo|2|JA", Encyclopedia{"Tokyo", 2, "ja"}},
		{"Go|1|simple", Encyclopedia{"Go", 1, "simple"}},
	}

	for _, tt := range tests {
		got, err := ParseEncyclopedia(tt.input)
		if err != nil {
			t.Errorf("ParseEncyclopedia(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseEncyclopedia(%q) = %+v, want %+v", tt.input, got, tt.expected)
		}
	}
}

func TestParseEncyclopediaFailures(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"Python|1|invalid", "Invalid language code: invalid"},
		{"Python|6", "Number of results must be between 1 and 5"},
		{"Python|1|en|us", encyclopediaFormat},
		{"  |1", "Query too short (minimum 1 characters)"},
	}

	for _, tt := range tests {
		_, err := ParseEncyclopedia(tt.input)
		if err == nil {
			t.Errorf("ParseEncyclopedia(%q) expected error", tt.input)
			continue
		}
		var e *errs.Error
		if errors.As(err, &e) && e.Message != tt.msg {
			t.Errorf("ParseEncyclopedia(%q) message = %q, want %q", tt.input, e.Message, tt.msg)
		}
	}
}

func TestSplit(t *testing.T) {
	parts, err := Split("a | b|c", 3)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if len(parts) != 3 || parts[1] != "b" {
		t.Errorf("Split = %q", parts)
	}
	if _, err := Split("a|b|c|d", 3); err == nil {
		t.Error("expected error for too many fields")
	}
}
