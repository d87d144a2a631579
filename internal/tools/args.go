package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"Quill/internal/errs"
)

// DecodeArgs reads the arguments of a model function call. Malformed JSON is
// repaired before giving up, and a bare JSON string is taken as the query.
func DecodeArgs(raw string) (Args, error) {
	const op = "tools.decode_args"

	var args Args
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, errs.New(errs.InvalidInput, op, "Missing tool arguments")
	}
	if err := unmarshalJSON([]byte(raw), &args); err != nil {
		var query string
		if json.Unmarshal([]byte(raw), &query) == nil {
			return Args{Query: query}, nil
		}
		return args, errs.Wrap(errs.InvalidInput, op, err, "Invalid tool arguments").
			WithArgs(map[string]any{"arguments": raw})
	}
	return args, nil
}

func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
