package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <name|id>...",
	Short: "Flip MCPs between enabled and disabled",
	Long: `Flip one or more MCP connections between enabled and disabled.

With a single argument the state is toggled. With --on or --off the
named MCPs are all forced to that state.

Examples:
  mcpdepot toggle filesystem
  mcpdepot toggle github search --off`,
	Args: cobra.MinimumNArgs(1),
	RunE: runToggle,
}

var (
	toggleOn  bool
	toggleOff bool
)

func init() {
	toggleCmd.Flags().BoolVar(&toggleOn, "on", false, "Enable the named MCPs")
	toggleCmd.Flags().BoolVar(&toggleOff, "off", false, "Disable the named MCPs")
	toggleCmd.MarkFlagsMutuallyExclusive("on", "off")
}

func runToggle(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ids := make([]string, 0, len(args))
	for _, ref := range args {
		rec, err := resolveMCP(st, ref)
		if err != nil {
			return err
		}
		ids = append(ids, rec.ID)
	}

	out := output.DefaultWriter()
	if toggleOn || toggleOff {
		if err := st.BulkToggleMCPs(ids, toggleOn); err != nil {
			return err
		}
	} else {
		for _, id := range ids {
			if err := st.ToggleMCP(id); err != nil {
				return err
			}
		}
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]any{"toggled": ids})
	}
	for _, id := range ids {
		rec, err := st.GetMCP(id)
		if err != nil {
			return err
		}
		out.Success("%s is now %s", rec.Name, status(rec))
	}
	return nil
}

var enableAllCmd = &cobra.Command{
	Use:   "enable-all",
	Short: "Enable every stored MCP",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.EnableAllMCPs(); err != nil {
			return err
		}

		if JSONOutput {
			return output.NewJSONWriter().WriteSuccess(map[string]int{"enabled": len(st.MCPs())})
		}
		output.DefaultWriter().Success("Enabled all %d MCPs", len(st.MCPs()))
		return nil
	},
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <name|id>",
	Short: "Duplicate an MCP connection",
	Long:  `Create a copy of an MCP connection under a generated unique name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := resolveMCP(st, args[0])
		if err != nil {
			return err
		}

		dup, err := st.DuplicateMCP(rec.ID)
		if err != nil {
			return err
		}

		if JSONOutput {
			return output.NewJSONWriter().WriteSuccess(dup)
		}
		output.DefaultWriter().Success("Duplicated %q as %q", rec.Name, dup.Name)
		return nil
	},
}
