package extractor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/termex/internal/parse"
)

// Runner processes many sentences in parallel. Each sentence keeps its own
// structure and memo; store writes are serialized by the store's
// transactions.
type Runner struct {
	extractor  *Extractor
	workers    int
	onProgress func(ProgressEvent)
}

// NewRunner creates a Runner with at most workers sentences in flight.
// onProgress is called from worker goroutines; it may be nil.
func NewRunner(x *Extractor, workers int, onProgress func(ProgressEvent)) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{extractor: x, workers: workers, onProgress: onProgress}
}

// Run processes sentences and returns their results in input order. The
// first failure cancels the sentences not yet started; results of sentences
// that completed are still returned.
func (r *Runner) Run(ctx context.Context, sentences []*parse.Sentence) ([]SentenceResult, error) {
	results := make([]SentenceResult, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	total := len(sentences)
	var done atomic.Int64
	for i, s := range sentences {
		section := sectionName(s, i)
		r.emit(ProgressEvent{Sentence: i, Section: section, Status: ProgressPending, Total: total})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.emit(ProgressEvent{Sentence: i, Section: section, Status: ProgressWorking, Total: total})

			res, err := r.extractor.ProcessSentence(gctx, s)
			if err != nil {
				r.emit(ProgressEvent{
					Sentence: i, Section: section, Status: ProgressFailed, Message: err.Error(),
					Done: int(done.Add(1)), Total: total,
				})
				return fmt.Errorf("%s: %w", section, err)
			}
			results[i] = res
			r.emit(ProgressEvent{
				Sentence: i, Section: section, Status: ProgressComplete, Terms: len(res.Terms),
				Done: int(done.Add(1)), Total: total,
			})
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

func (r *Runner) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}

func sectionName(s *parse.Sentence, i int) string {
	if s.FileName() == "" {
		return fmt.Sprintf("sentence %d", i+1)
	}
	return fmt.Sprintf("%s#%d", s.FileName(), i+1)
}
