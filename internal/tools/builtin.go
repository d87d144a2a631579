package tools

import (
	"Quill/internal/dataset"
	"Quill/internal/sandbox"
)

// Deps are the collaborators of the built-in tools. Nil network
// collaborators leave the matching tool unregistered.
type Deps struct {
	Executor *sandbox.Executor
	Context  *sandbox.Context
	Searcher Searcher
	Lookup   ArticleLookup
	Fetcher  PageFetcher
}

// NewDefaultRegistry registers the built-in tools.
func NewDefaultRegistry(d Deps) *Registry {
	if d.Executor == nil {
		d.Executor = sandbox.New(sandbox.Options{})
	}
	if d.Context == nil {
		d.Context = sandbox.NewContext("")
	}

	r := NewRegistry(
		&CalcTool{},
		NewAnalysisTool(dataset.NewAnalyzer(d.Executor)),
		NewScriptTool(d.Executor, d.Context),
	)
	if d.Searcher != nil {
		r.Register(NewSearchTool(d.Searcher))
	}
	if d.Lookup != nil {
		r.Register(NewWikipediaTool(d.Lookup))
	}
	if d.Fetcher != nil {
		r.Register(NewFetchTool(d.Fetcher))
	}
	return r
}
