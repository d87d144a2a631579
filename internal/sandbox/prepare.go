package sandbox

import (
	"strings"

	"github.com/d5/tengo/v2/parser"
	"github.com/d5/tengo/v2/token"

	"Quill/internal/errs"
)

var languageTags = map[string]bool{
	"tengo":  true,
	"go":     true,
	"python": true,
	"py":     true,
}

// Prepare normalizes raw script text: it strips a surrounding code fence and
// language tag, unescapes literal "\n" sequences in single-line input and
// syntax-checks the result. Invalid code, and code that assigns to one of
// the built-in helper names, fails with InvalidSyntax.
func Prepare(code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "```") && strings.HasSuffix(code, "```") && len(code) >= 6 {
		lines := strings.Split(strings.TrimSuffix(code[3:], "```"), "\n")
		head := strings.TrimSpace(lines[0])
		body := lines[1:]
		switch {
		case head == "" && len(body) > 0 && languageTags[strings.ToLower(strings.TrimSpace(body[0]))]:
			body = body[1:]
		case head != "" && !languageTags[strings.ToLower(head)]:
			body = append([]string{head}, body...)
		}
		code = strings.TrimSpace(strings.Join(body, "\n"))
	}

	if !strings.Contains(code, "\n") && strings.Contains(code, `\n`) {
		code = strings.ReplaceAll(code, `\n`, "\n")
	}

	if strings.TrimSpace(code) == "" {
		return "", errs.New(errs.InvalidSyntax, "sandbox.prepare", "No code to execute")
	}
	file, _, err := parse([]byte(code))
	if err != nil {
		return "", errs.Wrap(errs.InvalidSyntax, "sandbox.prepare", err, "Invalid syntax: "+firstLine(err.Error()))
	}
	if name := assignedHelper(file); name != "" {
		return "", errs.Newf(errs.InvalidSyntax, "sandbox.prepare",
			"'%s' is a built-in name and cannot be assigned; choose another variable name", name).With("name", name)
	}
	return code, nil
}

// assignedHelper returns the first built-in name a top-level statement
// assigns to. Built-ins are rebound on every run, so such an assignment
// would not survive into the next one.
func assignedHelper(file *parser.File) string {
	reserved := func(e parser.Expr) string {
		ident, ok := e.(*parser.Ident)
		if ok && helperNames[ident.Name] && ident.Name != "output" {
			return ident.Name
		}
		return ""
	}
	for _, stmt := range file.Stmts {
		switch s := stmt.(type) {
		case *parser.AssignStmt:
			for _, lhs := range s.LHS {
				if name := reserved(lhs); name != "" {
					return name
				}
			}
		case *parser.IncDecStmt:
			if name := reserved(s.Expr); name != "" {
				return name
			}
		}
	}
	return ""
}

func parse(src []byte) (*parser.File, *parser.SourceFile, error) {
	fileSet := parser.NewFileSet()
	srcFile := fileSet.AddFile("(main)", -1, len(src))
	file, err := parser.NewParser(srcFile, src, nil).ParseFile()
	return file, srcFile, err
}

// redeclarations turns top-level "name :=" into "name =" for names that
// already exist as globals, so scripts can build on earlier runs.
func redeclarations(src []byte, known func(string) bool) []byte {
	file, srcFile, err := parse(src)
	if err != nil {
		return src
	}
	out := src
	copied := false
	for _, stmt := range file.Stmts {
		assign, ok := stmt.(*parser.AssignStmt)
		if !ok || assign.Token != token.Define || len(assign.LHS) != 1 {
			continue
		}
		ident, ok := assign.LHS[0].(*parser.Ident)
		if !ok || !known(ident.Name) {
			continue
		}
		off := int(assign.TokenPos) - srcFile.Base
		if off < 0 || off+2 > len(out) || string(out[off:off+2]) != ":=" {
			continue
		}
		if !copied {
			out = append([]byte(nil), src...)
			copied = true
		}
		out[off], out[off+1] = ' ', '='
	}
	return out
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
