package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/termex/internal/export"
)

func exportCmd(flags *cliFlags) *cobra.Command {
	var (
		o      overrides
		format string
	)
	cmd := &cobra.Command{
		Use:   "export [file.conll]...",
		Short: "Export the term base as JSON or as a Mermaid diagram",
		Long: "Export the term base. With CoNLL files as arguments, terms are extracted " +
			"first, which makes the command usable with the in-memory store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) > 0 {
				sents, err := a.readSentences(args)
				if err != nil {
					return err
				}
				for _, s := range sents {
					if _, err := a.extractor.ProcessSentence(ctx, s); err != nil {
						return err
					}
				}
			}

			switch format {
			case "json":
				data, err := export.ExportTerminology(ctx, a.store, a.cfg.ProjectCode)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				return export.WriteJSON(cmd.OutOrStdout(), data)
			case "mermaid":
				diagram, err := export.GenerateMermaid(ctx, a.store)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), diagram)
				return err
			default:
				return fmt.Errorf("unknown format %q (want json or mermaid)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or mermaid")
	cmd.Flags().StringVar(&o.Backend, "store", "", "term store backend: memory, kuzu or postgres")
	cmd.Flags().StringVar(&o.StorePath, "store-path", "", "KuzuDB directory")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", 0, "maximum perceived depth of a term (default from config)")
	return cmd
}
