package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name|id>",
	Aliases: []string{"rm"},
	Short:   "Remove an MCP connection",
	Long: `Remove an MCP connection from the catalog.

Profiles referencing the removed MCP are pruned automatically.

Examples:
  mcpdepot remove filesystem
  mcpdepot rm github --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var removeYes bool

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := resolveMCP(st, args[0])
	if err != nil {
		return err
	}

	if !removeYes && isInteractive() {
		var confirm bool
		if err := huh.NewConfirm().
			Title("Remove \"" + rec.Name + "\"?").
			Affirmative("Remove").
			Negative("Keep").
			Value(&confirm).
			Run(); err != nil {
			return err
		}
		if !confirm {
			return nil
		}
	}

	if err := st.DeleteMCP(rec.ID); err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]string{"removed": rec.ID})
	}
	output.DefaultWriter().Success("Removed %q", rec.Name)
	return nil
}
