package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/extractor"
	"github.com/dusk-indust/termex/internal/lexicon"
	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/parse"
	"github.com/dusk-indust/termex/internal/store"
	"github.com/dusk-indust/termex/internal/terms"
)

// overrides are command-line values that take precedence over termex.yml.
type overrides struct {
	MaxDepth  int
	Workers   int
	Backend   string
	StorePath string
	Observers []string
}

// app is everything a command needs, wired from the project configuration.
type app struct {
	cfg       *config.ProjectConfig
	rules     *config.RuleSet
	store     store.Store
	extractor *extractor.Extractor
	observers extractor.Observers
	readOpts  []parse.ReaderOption
}

func loadConfig(flags *cliFlags, o overrides) (*config.ProjectConfig, error) {
	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.MaxDepth > 0 {
		cfg.MaxDepth = o.MaxDepth
	}
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}
	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	if len(o.Observers) > 0 {
		cfg.Observers = o.Observers
	}
	if flags.Verbose {
		cfg.LogLevel = "debug"
	}
	if flags.LogJSON {
		cfg.LogJSON = true
	}
	cfg.ApplyDefaults()
	if cfg.Store.Path != "" {
		cfg.Store.Path = resolve(flags.ProjectRoot, cfg.Store.Path)
	}
	if cfg.AnalysisFile != "" {
		cfg.AnalysisFile = resolve(flags.ProjectRoot, cfg.AnalysisFile)
	}

	logger.Init(&logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		Output:     os.Stderr,
		JSON:       cfg.LogJSON,
		TimeFormat: "15:04:05",
	})
	return cfg, nil
}

// openApp loads the configuration, the linguistic resources and the store.
func openApp(ctx context.Context, flags *cliFlags, o overrides) (*app, error) {
	cfg, err := loadConfig(flags, o)
	if err != nil {
		return nil, err
	}
	rules, err := cfg.RuleSet(flags.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	a := &app{cfg: cfg, rules: rules}
	a.readOpts = append(a.readOpts, parse.WithOpenClassTags(rules.OpenClassTags.Slice()...))

	var caseTable terms.CaseTable
	var canon lexicon.Lexicon
	lang := language.Make(cfg.Language)
	if cfg.Lexicon != "" {
		mem, err := loadLexicon(resolve(flags.ProjectRoot, cfg.Lexicon))
		if err != nil {
			return nil, err
		}
		cached, err := lexicon.NewCachedLexicon(mem, lexicon.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		canon = cached
		a.readOpts = append(a.readOpts, parse.WithEntries(mem))
		cases := lexicon.NewCaseTable(lang, mem)
		if err := loadKnownWords(cases, flags.ProjectRoot, cfg.KnownWords); err != nil {
			return nil, err
		}
		caseTable = cases
		logger.Debug("lexicon loaded", "entries", mem.Len())
	} else if cfg.KnownWords != "" {
		cases := lexicon.NewCaseTable(lang, nil)
		if err := loadKnownWords(cases, flags.ProjectRoot, cfg.KnownWords); err != nil {
			return nil, err
		}
		caseTable = cases
	}

	renderer := terms.NewRenderer(rules, canon, caseTable, lexicon.SingularizerFor(cfg.Language))
	engine := terms.NewEngine(rules, cfg.MaxDepth, renderer)

	st, err := store.Open(ctx, cfg.Store, cfg.ProjectCode)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	a.store = st

	obs, err := extractor.ObserversFromConfig(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	a.observers = obs
	a.extractor = extractor.New(engine, rules.NominalTags, st, obs...)
	return a, nil
}

func (a *app) Close() error {
	obsErr := a.observers.Close()
	if err := a.store.Close(); err != nil {
		return err
	}
	return obsErr
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func loadLexicon(path string) (*lexicon.MemLexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()
	mem := lexicon.NewMemLexicon()
	if err := mem.LoadTSV(f); err != nil {
		return nil, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	return mem, nil
}

func loadKnownWords(c *lexicon.CaseTable, root, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(resolve(root, path))
	if err != nil {
		return fmt.Errorf("opening known words: %w", err)
	}
	defer f.Close()
	return c.LoadWords(f)
}

// readSentences reads every CoNLL file in paths.
func (a *app) readSentences(paths []string) ([]*parse.Sentence, error) {
	var out []*parse.Sentence
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		sents, err := parse.ReadAll(f, filepath.Base(p), a.readOpts...)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, sents...)
	}
	return out, nil
}
