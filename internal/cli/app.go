/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"Quill/internal/agent"
	"Quill/internal/config"
	"Quill/internal/logging"
	"Quill/internal/memory"
	"Quill/internal/sandbox"
	"Quill/internal/tools"
	"Quill/internal/vectorstore"
	"Quill/internal/web"
	"Quill/pkg/types"
)

// sessionOptions are the flags shared by chat and ask.
type sessionOptions struct {
	SessionID string
	Continue  bool
	Provider  string
	Model     string
	Context   string
	Log       bool
}

// app is one wired conversation: config, logger, tools, agent and the
// session it is recorded into.
type app struct {
	cfg     *types.Config
	logger  *logging.Logger
	agent   *agent.Agent
	session *memory.Session
	store   *memory.Store
	resumed bool
}

func loadConfig() (*types.Config, error) {
	return config.Load(config.Options{File: cfgFile})
}

// newApp wires an agent for opts. A missing or malformed model key is not
// fatal: local tools keep working and free-form messages report the problem.
func newApp(opts sessionOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.Provider != "" {
		cfg.LLM.Provider = opts.Provider
	}
	if opts.Model != "" {
		cfg.LLM.Model = opts.Model
	}

	a := &app{cfg: cfg, store: memory.NewStore("")}
	if err := a.openSession(opts); err != nil {
		return nil, err
	}

	a.logger = logging.Nop()
	if cfg.Logging.Enabled || opts.Log {
		logger, err := logging.New(logging.Options{
			SessionID: a.session.ShortID(),
			Dir:       cfg.Logging.Dir,
			Level:     cfg.Logging.Level,
			Console:   verbose,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("⚠️  Failed to create logger: %v", err)))
		} else {
			a.logger = logger
			if verbose {
				fmt.Println(dimStyle.Render("📝 Logging to: " + logger.FilePath()))
			}
		}
	}

	var completer agent.Completer
	if err := config.CheckKeys(cfg); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("⚠️  "+errText(err)+"; only calculations, datasets and scripts are available"))
	} else if completer, err = agent.NewCompleter(cfg.LLM, nil); err != nil {
		return nil, err
	}

	exec := sandbox.New(sandbox.Options{
		Timeout:   cfg.Tools.ScriptTimeout,
		MaxAllocs: cfg.Tools.ScriptMaxAllocs,
		Logger:    a.logger.Logger,
	})
	scratch := sandbox.NewContext(a.session.ID)

	history := memory.NewHistory(cfg.Memory.MaxMessages, "")
	if a.resumed {
		history.Restore(a.session.Messages)
	}

	system := cfg.Memory.SystemMessage
	if system == "" {
		system = agent.SystemMessage(opts.Context)
	}

	a.agent = agent.New(agent.Options{
		Registry:     tools.NewDefaultRegistry(toolDeps(cfg, exec, scratch)),
		Completer:    completer,
		History:      history,
		Scratch:      scratch,
		Logger:       a.logger.Logger,
		SystemPrompt: system,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		TextTools:    cfg.LLM.ToolProtocol == "text",
	})
	return a, nil
}

// toolDeps builds the tool collaborators. Web search is only registered
// when a SerpAPI key is configured.
func toolDeps(cfg *types.Config, exec *sandbox.Executor, scratch *sandbox.Context) tools.Deps {
	client := web.NewClient(&http.Client{Timeout: cfg.Tools.FetchTimeout})
	deps := tools.Deps{
		Executor: exec,
		Context:  scratch,
		Lookup:   web.NewWikipedia(cfg.Tools.WikipediaEndpoint, client),
		Fetcher:  web.NewFetcher(client, cfg.Tools.FetchTimeout, cfg.Tools.FetchMaxLength),
	}
	if cfg.Tools.SerpAPIKey != "" {
		deps.Searcher = web.NewSerpAPI(cfg.Tools.SearchEndpoint, cfg.Tools.SerpAPIKey, client)
	}
	return deps
}

func (a *app) openSession(opts sessionOptions) error {
	switch {
	case opts.SessionID != "":
		session, err := a.store.Load(opts.SessionID)
		if err != nil {
			return err
		}
		a.session, a.resumed = session, true
	case opts.Continue:
		session, err := a.store.Latest()
		if err != nil {
			return err
		}
		if session == nil {
			fmt.Println("No previous session found. Starting new session.")
			a.session = memory.NewSession(a.cfg.LLM.Model)
			return nil
		}
		a.session, a.resumed = session, true
	default:
		a.session = memory.NewSession(a.cfg.LLM.Model)
	}
	return nil
}

// close saves the session, indexes it for search and removes expired
// sessions.
func (a *app) close() {
	defer a.logger.Close()

	if !a.cfg.Memory.Persist || a.agent.History().Len() == 0 {
		return
	}
	a.session.Record(a.agent.History())
	if err := a.store.Save(a.session); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("Warning: Could not save session: %v", err)))
		return
	}

	if a.cfg.History.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if n, err := indexSession(ctx, a.cfg, a.session); err != nil {
			a.logger.Warn("session indexing failed", zap.Error(err))
		} else if verbose {
			fmt.Println(dimStyle.Render(fmt.Sprintf("🧠 Indexed %d messages", n)))
		}
	}

	if _, err := a.store.Cleanup(time.Now()); err != nil {
		a.logger.Warn("session cleanup failed", zap.Error(err))
	}
}

func openVectorStore(cfg *types.Config) (*vectorstore.ChromemStore, error) {
	opts := vectorstore.EmbedderOptions{Provider: cfg.History.Embedder, Model: cfg.History.Model}
	if cfg.History.Embedder == "openai" {
		opts.APIKey, opts.BaseURL = cfg.LLM.APIKey, cfg.LLM.BaseURL
	}
	ef, err := vectorstore.NewEmbeddingFunc(opts)
	if err != nil {
		return nil, err
	}
	return vectorstore.Open(vectorstore.DefaultPath(), ef)
}

// indexSession replaces the indexed messages of session.
func indexSession(ctx context.Context, cfg *types.Config, session *memory.Session) (int, error) {
	store, err := openVectorStore(cfg)
	if err != nil {
		return 0, err
	}
	if err := store.DeleteSession(ctx, session.ID); err != nil {
		return 0, err
	}
	return vectorstore.IndexSession(ctx, store, session)
}
