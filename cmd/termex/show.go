package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/termex/internal/store"
)

func showCmd(flags *cliFlags) *cobra.Command {
	var (
		o     overrides
		limit int
	)
	cmd := &cobra.Command{
		Use:   "show [term]",
		Short: "Show the most frequent terms, or one term with its relations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags, o)
			if err != nil {
				return err
			}
			defer a.Close()
			if len(args) == 1 {
				return printTerm(cmd, a.store, args[0])
			}
			return printTerms(cmd, a.store, limit)
		},
	}
	cmd.Flags().StringVar(&o.Backend, "store", "", "term store backend: memory, kuzu or postgres")
	cmd.Flags().StringVar(&o.StorePath, "store-path", "", "KuzuDB directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of terms to list")
	return cmd
}

func printTerms(cmd *cobra.Command, st store.Store, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Terms: %d  Contexts: %d  Relations: %d\n\n", stats.TermCount, stats.ContextCount, stats.RelationCount)

	ts, err := st.QueryTerms(ctx, "", limit)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(out, "No terms found.")
		fmt.Fprintln(out, "Run 'termex extract <file.conll>' with a persistent store first.")
		return nil
	}
	for _, t := range ts {
		fmt.Fprintf(out, "  %5d  %-50s heads:%d expansions:%d\n", t.Frequency, t.Text, t.HeadCount, t.ExpansionCount)
	}
	return nil
}

func printTerm(cmd *cobra.Command, st store.Store, text string) error {
	ctx := cmd.Context()
	t, err := st.GetTerm(ctx, text)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%q: %w", text, store.ErrNotFound)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Term: %s\n", t.Text)
	fmt.Fprintf(out, "  frequency: %d  lexical words: %d\n", t.Frequency, t.LexicalWordCount)

	heads, err := st.Heads(ctx, text)
	if err != nil {
		return err
	}
	printList(out, "Heads", heads)
	exps, err := st.Expansions(ctx, text)
	if err != nil {
		return err
	}
	printList(out, "Expansions", exps)

	cs, err := st.Contexts(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nContexts (%d):\n", len(cs))
	for _, c := range cs {
		fmt.Fprintf(out, "  %s:%d:%d  %s\n", c.FileName, c.Line, c.Column, c.TextSegment)
	}
	return nil
}

func printList(out io.Writer, title string, items []string) {
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(out, "  -> %s\n", it)
	}
}
