// Package query parses pipe-delimited composite queries into validated,
// typed parameters.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"Quill/internal/errs"
	"Quill/internal/validate"
)

// Delimiter separates the positional fields of a composite query.
const Delimiter = "|"

// Search is a parsed web search request: term|count|lang|country.
type Search struct {
	Term    string `validate:"required"`
	Count   int    `validate:"gte=1,lte=10"`
	Lang    string `validate:"len=2,alpha"`
	Country string `validate:"len=2,alpha"`
}

// Encyclopedia is a parsed encyclopedia request: term|count|lang.
type Encyclopedia struct {
	Term  string `validate:"required"`
	Count int    `validate:"gte=1,lte=5"`
	Lang  string `validate:"wikilang"`
}

const (
	searchFormat       = "Invalid query format. Use: 'search_term' or 'search_term|num_results|language|country'"
	encyclopediaFormat = "Invalid query format. Use: 'search_term' or 'search_term|num_results|language'"
)

// wikiLanguages is the set of encyclopedia editions requests may target.
var wikiLanguages = map[string]bool{
	"ar": true, "bg": true, "ca": true, "cs": true, "da": true, "de": true,
	"el": true, "en": true, "eo": true, "es": true, "et": true, "eu": true,
	"fa": true, "fi": true, "fr": true, "gl": true, "he": true, "hi": true,
	"hr": true, "hu": true, "hy": true, "id": true, "it": true, "ja": true,
	"ka": true, "kk": true, "ko": true, "la": true, "lt": true, "ms": true,
	"nl": true, "nn": true, "no": true, "pl": true, "pt": true, "ro": true,
	"ru": true, "sh": true, "simple": true, "sk": true, "sl": true, "sr": true,
	"sv": true, "ta": true, "th": true, "tr": true, "uk": true, "ur": true,
	"uz": true, "vi": true, "zh": true,
}

// Languages lists the supported encyclopedia language codes.
func Languages() []string {
	out := make([]string, 0, len(wikiLanguages))
	for code := range wikiLanguages {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

var (
	validateOnce sync.Once
	structs      *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		structs = validator.New(validator.WithRequiredStructEnabled())
		structs.RegisterValidation("wikilang", func(fl validator.FieldLevel) bool {
			return wikiLanguages[fl.Field().String()]
		})
	})
	return structs
}

// Split breaks raw into trimmed fields, failing when there are more than max.
func Split(raw string, max int) ([]string, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) > max {
		return nil, errs.New(errs.InvalidInput, "query.split", "Too many fields").
			With("fields", len(parts)).With("max", max)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func field(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func count(raw string, def int, op string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.New(errs.InvalidInput, op, "Invalid number of results").With("count", raw)
	}
	return n, nil
}

// ParseSearch parses "term|count|lang|country". Missing or empty optional
// fields default to 5, "en" and "us".
func ParseSearch(raw string) (Search, error) {
	const op = "query.search"
	parts, err := Split(raw, 4)
	if err != nil {
		return Search{}, errs.New(errs.InvalidInput, op, searchFormat)
	}

	q := Search{Term: parts[0], Lang: "en", Country: "us"}
	if r := validate.SearchQuery(q.Term, validate.SearchOptions{}); !r.Valid {
		return Search{}, r.Err(op)
	}
	if q.Count, err = count(field(parts, 1), 5, op); err != nil {
		return Search{}, err
	}
	if v := field(parts, 2); v != "" {
		q.Lang = v
	}
	if v := field(parts, 3); v != "" {
		q.Country = v
	}

	if err := validatorInstance().Struct(q); err != nil {
		return Search{}, translate(op, err)
	}
	return q, nil
}

// ParseEncyclopedia parses "term|count|lang". Missing or empty optional
// fields default to 1 and "en".
func ParseEncyclopedia(raw string) (Encyclopedia, error) {
	const op = "query.encyclopedia"
	parts, err := Split(raw, 3)
	if err != nil {
		return Encyclopedia{}, errs.New(errs.InvalidInput, op, encyclopediaFormat)
	}

	q := Encyclopedia{Term: parts[0], Lang: "en"}
	if r := validate.SearchQuery(q.Term, validate.SearchOptions{MinLength: 1}); !r.Valid {
		return Encyclopedia{}, r.Err(op)
	}
	if q.Count, err = count(field(parts, 1), 1, op); err != nil {
		return Encyclopedia{}, err
	}
	if v := field(parts, 2); v != "" {
		q.Lang = strings.ToLower(v)
	}

	if err := validatorInstance().Struct(q); err != nil {
		return Encyclopedia{}, translate(op, err)
	}
	return q, nil
}

// translate turns the first field failure into a user-facing message.
func translate(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.Wrap(errs.InvalidInput, op, err, "Invalid query")
	}
	fe := verrs[0]
	var msg string
	switch fe.Field() {
	case "Term":
		msg = "Search term must not be empty"
	case "Count":
		msg = fmt.Sprintf("Number of results must be between 1 and %s", maxParam(fe))
	case "Lang":
		if fe.Tag() == "wikilang" {
			msg = fmt.Sprintf("Invalid language code: %v", fe.Value())
		} else {
			msg = "Language code must be 2 characters (e.g., 'en')"
		}
	case "Country":
		msg = "Country code must be 2 characters (e.g., 'us')"
	default:
		msg = "Invalid query"
	}
	return errs.New(errs.InvalidInput, op, msg).
		With("field", fe.Field()).
		With("rule", fe.Tag()).
		With("value", fe.Value())
}

// maxParam recovers the upper bound of the Count rule for messages.
func maxParam(fe validator.FieldError) string {
	if fe.Tag() == "lte" {
		return fe.Param()
	}
	switch fe.StructNamespace() {
	case "Encyclopedia.Count":
		return "5"
	default:
		return "10"
	}
}
