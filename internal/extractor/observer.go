package extractor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/store"
)

// ErrUnknownObserver is returned for an observer name with no registration.
var ErrUnknownObserver = errors.New("unknown term observer")

// TermObserver is notified of every processed sentence and of every term
// occurrence found in it, in sentence order.
type TermObserver interface {
	OnNewContext(text string)
	OnNewTerm(term store.Term)
}

// AnalysisWriter writes a plain-text trace of the extraction: one header per
// sentence followed by the text of each term found in it.
type AnalysisWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	c   io.Closer
	err error
}

// NewAnalysisWriter writes to w. If w is an io.Closer, Close closes it.
func NewAnalysisWriter(w io.Writer) *AnalysisWriter {
	a := &AnalysisWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		a.c = c
	}
	return a
}

// CreateAnalysisFile truncates or creates path, creating parent directories.
func CreateAnalysisFile(path string) (*AnalysisWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating analysis directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating analysis file: %w", err)
	}
	return NewAnalysisWriter(f), nil
}

func (a *AnalysisWriter) OnNewContext(text string) {
	a.write("\n#### Sentence: " + text + "\n")
}

func (a *AnalysisWriter) OnNewTerm(term store.Term) {
	a.write(term.Text + "\n")
}

func (a *AnalysisWriter) write(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return
	}
	if _, err := a.w.WriteString(s); err != nil {
		a.err = err
		logger.Error("analysis writer failed", "error", err)
		return
	}
	a.err = a.w.Flush()
}

// Close flushes pending output and reports the first write error.
func (a *AnalysisWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.err
	if err == nil {
		err = a.w.Flush()
	}
	if a.c != nil {
		if cerr := a.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogObserver reports sentences and terms at debug level.
type LogObserver struct {
	log logger.Logger
}

// NewLogObserver logs through l, or the default logger if l is nil.
func NewLogObserver(l logger.Logger) *LogObserver {
	if l == nil {
		l = logger.GetDefault()
	}
	return &LogObserver{log: l.With("component", "observer")}
}

func (o *LogObserver) OnNewContext(text string) {
	o.log.Debug("new context", "sentence", text)
}

func (o *LogObserver) OnNewTerm(term store.Term) {
	o.log.Debug("new term", "term", term.Text, "lexical_words", term.LexicalWordCount)
}

// ObserverFactory builds a named observer from the project configuration.
type ObserverFactory func(cfg *config.ProjectConfig) (TermObserver, error)

var registry = map[string]ObserverFactory{
	"analysis-writer": func(cfg *config.ProjectConfig) (TermObserver, error) {
		if cfg.AnalysisFile == "" {
			return nil, fmt.Errorf("analysis-writer: analysisFile is not set")
		}
		return CreateAnalysisFile(cfg.AnalysisFile)
	},
	"log": func(*config.ProjectConfig) (TermObserver, error) {
		return NewLogObserver(nil), nil
	},
}

// ObserverNames lists the registered observer names.
func ObserverNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Observers is a set of configured observers.
type Observers []TermObserver

// Close closes every observer that holds resources.
func (obs Observers) Close() error {
	var errs []error
	for _, o := range obs {
		if c, ok := o.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// ObserversFromConfig builds the observers named in cfg.Observers.
func ObserversFromConfig(cfg *config.ProjectConfig) (Observers, error) {
	var out Observers
	for _, name := range cfg.Observers {
		f, ok := registry[name]
		if !ok {
			_ = out.Close()
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownObserver)
		}
		o, err := f(cfg)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
