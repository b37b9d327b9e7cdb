package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
	"github.com/mcpdepot/mcpdepot/pkg/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage MCP profiles",
	Long: `Manage named groups of MCP connections.

Loading a profile enables exactly its members and disables everything
else. Profiles can be exported with their member records and imported
on another machine.

Examples:
  mcpdepot profile list
  mcpdepot profile create work --mcps github,linear
  mcpdepot profile use work
  mcpdepot profile save
  mcpdepot profile export work > work.json`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Show a profile and its members",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileUseCmd = &cobra.Command{
	Use:     "use <name|id>",
	Aliases: []string{"load", "switch"},
	Short:   "Load a profile, enabling exactly its members",
	Args:    cobra.ExactArgs(1),
	RunE:    runProfileUse,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current enabled set into the active profile",
	RunE:  runProfileSave,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <name|id> [file]",
	Short: "Export a profile with its member records",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a profile document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileImport,
}

var (
	profileMCPs        string
	profileDescription string
)

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)

	profileCreateCmd.Flags().StringVar(&profileMCPs, "mcps", "", "Comma-separated member names or ids")
	profileCreateCmd.Flags().StringVarP(&profileDescription, "description", "d", "", "Description")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	profiles := st.Profiles()
	active := st.ActiveProfile()

	if JSONOutput {
		infos := make([]output.ProfileInfo, 0, len(profiles))
		for _, p := range profiles {
			infos = append(infos, output.ProfileInfo{
				ID:      p.ID,
				Name:    p.Name,
				Members: len(p.MCPIDs),
				Active:  active != nil && active.ID == p.ID,
				Default: p.IsDefault,
			})
		}
		return output.NewJSONWriter().WriteSuccess(map[string]any{"profiles": infos})
	}

	if len(profiles) == 0 {
		output.DefaultWriter().Info("No profiles. Run 'mcpdepot profile create' to make one.")
		return nil
	}

	table := output.NewTable("Name", "Members", "Active", "Default")
	for _, p := range profiles {
		mark := ""
		if active != nil && active.ID == p.ID {
			mark = "*"
		}
		def := ""
		if p.IsDefault {
			def = "yes"
		}
		table.AddRow(p.Name, fmt.Sprintf("%d", len(p.MCPIDs)), mark, def)
	}
	table.Render()
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	var ids []string
	for _, ref := range splitList(profileMCPs) {
		rec, err := resolveMCP(st, ref)
		if err != nil {
			return err
		}
		ids = append(ids, rec.ID)
	}

	p, err := st.CreateProfile(args[0], profileDescription, ids)
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(p)
	}
	output.DefaultWriter().Success("Created profile %q with %d MCPs", p.Name, len(p.MCPIDs))
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := resolveProfile(st, args[0])
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(p)
	}

	out := output.DefaultWriter()
	out.Println("%s (%s)", p.Name, p.ID)
	if p.Description != "" {
		out.Println("  %s", p.Description)
	}
	var members []string
	for _, id := range p.MCPIDs {
		if rec, err := st.GetMCP(id); err == nil {
			members = append(members, rec.Name)
		} else {
			members = append(members, id+" (missing)")
		}
	}
	out.List(members)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := resolveProfile(st, args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteProfile(p.ID); err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]string{"deleted": p.ID})
	}
	output.DefaultWriter().Success("Deleted profile %q", p.Name)
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := resolveProfile(st, args[0])
	if err != nil {
		return err
	}
	if err := st.LoadProfile(p.ID); err != nil {
		return err
	}
	if err := persistActiveProfile(st, p.ID); err != nil {
		return err
	}

	enabled := 0
	for _, r := range st.MCPs() {
		if !r.Disabled {
			enabled++
		}
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]any{"active": p.ID, "enabled": enabled})
	}
	output.DefaultWriter().Success("Loaded profile %q: %d MCPs enabled", p.Name, enabled)
	return nil
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.SaveCurrentStateToProfile(); err != nil {
		return err
	}

	active := st.ActiveProfile()
	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(active)
	}
	output.DefaultWriter().Success("Saved current state to profile %q", active.Name)
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := resolveProfile(st, args[0])
	if err != nil {
		return err
	}
	data, err := st.ExportProfile(p.ID)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		if err := os.WriteFile(args[1], append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}
		output.DefaultWriter().Success("Exported profile %q to %s", p.Name, args[1])
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
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

	p, err := st.ImportProfile(data)
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(p)
	}
	output.DefaultWriter().Success("Imported profile %q with %d MCPs", p.Name, len(p.MCPIDs))
	return nil
}

// persistActiveProfile records the loaded profile as the startup
// default. The active pointer itself is in-memory only, so without
// this hint the next invocation would start with no active profile
// and `profile save` would have nothing to save to.
func persistActiveProfile(st *store.Store, id string) error {
	settings := st.Settings()
	if settings.DefaultProfile == id {
		return nil
	}
	settings.DefaultProfile = id
	return st.UpdateSettings(settings)
}

// resolveProfile finds a profile by id first, then by name
func resolveProfile(st *store.Store, ref string) (*mcp.Profile, error) {
	if p, err := st.GetProfile(ref); err == nil {
		return p, nil
	}
	for _, p := range st.Profiles() {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no profile named %q", ref)
}
