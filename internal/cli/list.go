package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
	"github.com/mcpdepot/mcpdepot/pkg/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored MCP connections",
	Long: `List the MCP connections in the catalog.

Examples:
  mcpdepot list
  mcpdepot list --search github
  mcpdepot list --category development
  mcpdepot list --json`,
	RunE: runList,
}

var (
	listSearch   string
	listCategory string
)

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by name, description, or tag")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category")
}

func runList(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	records := st.QueryMCPs(store.Filter{Search: listSearch, Category: listCategory})

	if JSONOutput {
		infos := make([]output.RecordInfo, 0, len(records))
		for _, r := range records {
			infos = append(infos, recordInfo(r))
		}
		return output.NewJSONWriter().WriteSuccess(map[string]any{"mcps": infos})
	}

	if len(records) == 0 {
		output.DefaultWriter().Info("No MCPs stored. Run 'mcpdepot add' to create one.")
		return nil
	}

	table := output.NewTable("Name", "Transport", "Target", "Category", "Status")
	for _, r := range records {
		table.AddRow(r.Name, string(r.Transport), target(r), r.Category, status(r))
	}
	table.Render()
	return nil
}

func recordInfo(r *mcp.Record) output.RecordInfo {
	return output.RecordInfo{
		ID:        r.ID,
		Name:      r.Name,
		Transport: string(r.Transport),
		Status:    status(r),
		Category:  r.Category,
		Command:   r.Command(),
		URL:       r.URL(),
		Usage:     r.UsageCount,
	}
}

func target(r *mcp.Record) string {
	if r.Transport.Remote() {
		return r.URL()
	}
	if args := r.Args(); len(args) > 0 {
		return fmt.Sprintf("%s %s", r.Command(), args[0])
	}
	return r.Command()
}

func status(r *mcp.Record) string {
	if r.Disabled {
		return "disabled"
	}
	return "enabled"
}
