package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import MCPs from an mcpServers document",
	Long: `Import MCP connections from a JSON document.

Both the named mcpServers map used by Claude Desktop, Cursor, and
similar tools, and single-record exports are recognized. Name
collisions are resolved by renaming the incoming entry. Reads stdin
when no file is given.

Examples:
  mcpdepot import servers.json
  cat claude_desktop_config.json | mcpdepot import`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	added, err := st.ImportMCPs(data)
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]any{"imported": len(added), "mcps": added})
	}
	out := output.DefaultWriter()
	out.Success("Imported %d MCPs", len(added))
	names := make([]string, len(added))
	for i, r := range added {
		names[i] = fmt.Sprintf("%s (%s)", r.Name, r.Transport)
	}
	out.List(names)
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export MCPs as an mcpServers document",
	Long: `Export MCP connections as a JSON mcpServers document.

By default every enabled MCP is exported in the minimal form other
tools expect. The "claude" format additionally carries disabled flags.
Writes to stdout when no file is given.

Examples:
  mcpdepot export
  mcpdepot export servers.json --format claude
  mcpdepot export --ids id1,id2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	exportFormat string
	exportIDs    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: default, claude")
	exportCmd.Flags().StringVar(&exportIDs, "ids", "", "Comma-separated record ids (default: all enabled)")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	var ids []string
	if exportIDs != "" {
		ids = strings.Split(exportIDs, ",")
	}

	data, err := st.ExportMCPs(ids, mcp.ExportFormat(exportFormat))
	if err != nil {
		return err
	}

	if len(args) > 0 {
		if err := os.WriteFile(args[0], append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}
		output.DefaultWriter().Success("Exported to %s", args[0])
		return nil
	}
	fmt.Println(string(data))
	return nil
}
