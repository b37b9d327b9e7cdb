package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage catalog backups",
	Long: `Manage snapshots of the full catalog.

mcpdepot automatically snapshots after mutations when auto-backup is
enabled in settings. Only the most recent snapshots are kept; restoring
one replaces the entire catalog.

Examples:
  mcpdepot backup list
  mcpdepot backup create -d "before cleanup"
  mcpdepot backup restore <id>`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups",
	RunE:  runBackupList,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup now",
	RunE:  runBackupCreate,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore the catalog from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

var backupDescription string

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	backupCreateCmd.Flags().StringVarP(&backupDescription, "description", "d", "", "Backup description")
}

func runBackupList(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	backups, err := st.Backups()
	if err != nil {
		return err
	}

	if JSONOutput {
		infos := make([]output.BackupInfo, 0, len(backups))
		for _, b := range backups {
			infos = append(infos, output.BackupInfo{
				ID:          b.ID,
				Timestamp:   b.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
				Description: b.Description,
				MCPs:        len(b.Data.MCPs),
				Profiles:    len(b.Data.Profiles),
			})
		}
		return output.NewJSONWriter().WriteSuccess(map[string]any{"backups": infos})
	}

	if len(backups) == 0 {
		output.DefaultWriter().Info("No backups yet.")
		return nil
	}

	table := output.NewTable("ID", "Created", "MCPs", "Description")
	for _, b := range backups {
		table.AddRow(b.ID, b.Timestamp.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(b.Data.MCPs)), b.Description)
	}
	table.Render()
	return nil
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.CreateBackup(backupDescription)
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]string{"id": b.ID})
	}
	output.DefaultWriter().Success("Created backup %s", b.ID)
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.RestoreBackup(args[0]); err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]any{
			"restored": args[0],
			"mcps":     len(st.MCPs()),
		})
	}
	output.DefaultWriter().Success("Restored backup %s: %d MCPs", args[0], len(st.MCPs()))
	return nil
}
