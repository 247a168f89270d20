package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/termex.yml
var projectTemplate []byte

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// termexMCPEntry is the MCP server configuration for the termex binary.
var termexMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "termex",
  "args": ["serve-mcp"]
}`)

func initCmd(flags *cliFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a termex.yml and register the MCP server in .mcp.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), flags.ProjectRoot, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit installs the project configuration and MCP entry into projectRoot.
func runInit(out io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	cfgPath := filepath.Join(abs, "termex.yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(out, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, cfgPath))
	} else {
		if err := os.WriteFile(cfgPath, projectTemplate, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfgPath, err)
		}
		fmt.Fprintf(out, "  created %s\n", dotRelative(abs, cfgPath))
	}

	if err := mergeMCPConfig(out, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSetup complete. Run 'termex extract <file.conll>' to build the term base.")
	return nil
}

// mergeMCPConfig creates or merges the termex entry into .mcp.json.
func mergeMCPConfig(out io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["termex"]; exists && !force {
		fmt.Fprintf(out, "  skipped .mcp.json termex entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["termex"] = termexMCPEntry

	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(out, "  %s .mcp.json with termex MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
