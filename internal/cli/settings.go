package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/internal/config"
	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show or change catalog settings.

Examples:
  mcpdepot settings
  mcpdepot settings set auto-backup off
  mcpdepot settings set export-format claude
  mcpdepot settings set default-profile work`,
	RunE: runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	settings := st.Settings()
	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(settings)
	}

	out := output.DefaultWriter()
	out.Println("theme:           %s", settings.Theme)
	out.Println("auto-backup:     %s", onOff(settings.AutoBackup))
	out.Println("encryption:      %s", onOff(settings.EncryptionEnabled))
	out.Println("export-format:   %s", settings.ExportFormat)
	out.Println("default-profile: %s", settings.DefaultProfile)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	settings := st.Settings()
	key, value := args[0], args[1]

	switch key {
	case "theme":
		settings.Theme = value
	case "auto-backup":
		settings.AutoBackup = value == "on" || value == "true"
	case "encryption":
		settings.EncryptionEnabled = value == "on" || value == "true"
		if settings.EncryptionEnabled {
			if cfg, err := config.Load(); err == nil && cfg.Passphrase() == "" {
				output.DefaultWriter().Warning("no passphrase in %s; the next command will prompt for one", cfg.PassphraseEnv)
			}
		}
	case "export-format":
		format := mcp.ExportFormat(value)
		if format != mcp.FormatDefault && format != mcp.FormatClaude {
			return fmt.Errorf("unknown export format %q", value)
		}
		settings.ExportFormat = format
	case "default-profile":
		if value == "" || value == "none" {
			settings.DefaultProfile = ""
			break
		}
		p, err := resolveProfile(st, value)
		if err != nil {
			return err
		}
		settings.DefaultProfile = p.ID
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := st.UpdateSettings(settings); err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(settings)
	}
	output.DefaultWriter().Success("Set %s to %s", key, value)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
