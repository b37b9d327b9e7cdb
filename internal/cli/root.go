// Package cli implements the mcpdepot command tree.
package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mcpdepot/mcpdepot/internal/config"
	"github.com/mcpdepot/mcpdepot/pkg/fieldcrypt"
	"github.com/mcpdepot/mcpdepot/pkg/storage"
	"github.com/mcpdepot/mcpdepot/pkg/store"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "unknown"
)

// JSONOutput is the global --json flag
var JSONOutput bool

var askPass bool

var rootCmd = &cobra.Command{
	Use:   "mcpdepot",
	Short: "Local MCP connection manager",
	Long: `mcpdepot keeps a local catalog of MCP server connections: stdio
commands and remote endpoints, grouped into profiles, with encrypted
credentials and automatic backups.

Examples:
  mcpdepot add                          # Add an MCP interactively
  mcpdepot list                         # List stored MCPs
  mcpdepot import servers.json          # Import an mcpServers document
  mcpdepot profile use work             # Enable exactly the work profile
  mcpdepot serve                        # Expose the catalog over HTTP`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&JSONOutput, "json", false, "Output machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&askPass, "ask-pass", false, "Prompt for the encryption passphrase")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(enableAllCmd)
	rootCmd.AddCommand(duplicateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mcpdepot version %s (%s)\n", Version, Commit)
	},
}

// openStore builds the full stack: config, bolt storage, field
// encryption, and a loaded store. The caller must call the returned
// close function.
func openStore() (*store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	adapter, err := storage.OpenBolt(cfg.DataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	passphrase, err := resolvePassphrase(cfg, adapter)
	if err != nil {
		adapter.Close()
		return nil, nil, err
	}

	manager := storage.NewManager(adapter, fieldcrypt.New(passphrase),
		storage.WithRetention(cfg.BackupRetention))

	st := store.New(manager)
	if err := st.Load(); err != nil {
		adapter.Close()
		return nil, nil, fmt.Errorf("failed to load data: %w", err)
	}
	return st, func() { adapter.Close() }, nil
}

// resolvePassphrase decides the encryption key for this invocation.
// The persisted encryptionEnabled setting is authoritative: off means
// plaintext regardless of environment, on requires a passphrase from
// the configured env var, --ask-pass, or an interactive prompt.
func resolvePassphrase(cfg *config.Config, adapter storage.Adapter) (string, error) {
	settings, err := adapter.GetSettings()
	if err != nil {
		return "", fmt.Errorf("failed to read settings: %w", err)
	}
	enabled := settings != nil && settings.EncryptionEnabled
	if !enabled && !askPass {
		return "", nil
	}

	passphrase := cfg.Passphrase()
	if passphrase == "" && (askPass || isInteractive()) {
		passphrase, err = promptPassphrase()
		if err != nil {
			return "", err
		}
	}
	if enabled && passphrase == "" {
		return "", fmt.Errorf("encryption is enabled but no passphrase is available; set %s or pass --ask-pass", cfg.PassphraseEnv)
	}
	return passphrase, nil
}

func promptPassphrase() (string, error) {
	if !isInteractive() {
		return "", fmt.Errorf("--ask-pass requires a terminal; set %s instead", "MCPDEPOT_PASSPHRASE")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}
