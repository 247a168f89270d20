package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/termex/internal/extractor"
)

func extractCmd(flags *cliFlags) *cobra.Command {
	var (
		o        overrides
		asJSON   bool
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file.conll>...",
		Short: "Extract terms from CoNLL dependency parses into the term store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, flags, o, args, asJSON, progress)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.MaxDepth, "max-depth", 0, "maximum perceived depth of a term (default from config)")
	f.IntVar(&o.Workers, "workers", 0, "sentences processed in parallel (default from config)")
	f.StringVar(&o.Backend, "store", "", "term store backend: memory, kuzu or postgres")
	f.StringVar(&o.StorePath, "store-path", "", "KuzuDB directory")
	f.StringSliceVar(&o.Observers, "observer", nil, "term observers to enable: "+fmt.Sprint(extractor.ObserverNames()))
	f.BoolVar(&asJSON, "json", false, "print results as JSON")
	f.BoolVar(&progress, "progress", false, "print per-sentence progress to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, flags *cliFlags, o overrides, paths []string, asJSON, progress bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, flags, o)
	if err != nil {
		return err
	}
	defer a.Close()

	sents, err := a.readSentences(paths)
	if err != nil {
		return err
	}

	var onProgress func(extractor.ProgressEvent)
	if progress {
		errOut := cmd.ErrOrStderr()
		onProgress = func(ev extractor.ProgressEvent) {
			if ev.Status == extractor.ProgressComplete || ev.Status == extractor.ProgressFailed {
				fmt.Fprintln(errOut, extractor.FormatProgress(ev))
			}
		}
	}
	results, err := extractor.NewRunner(a.extractor, a.cfg.Workers, onProgress).Run(ctx, sents)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}
	for _, r := range results {
		fmt.Fprintf(out, "#### %s\n", r.Text)
		for _, t := range r.Terms {
			fmt.Fprintf(out, "  %s\n", t)
		}
	}

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d sentences, %d terms, %d contexts, %d relations\n",
		len(results), stats.TermCount, stats.ContextCount, stats.RelationCount)
	return nil
}
