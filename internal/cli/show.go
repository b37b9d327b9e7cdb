package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
	"github.com/mcpdepot/mcpdepot/pkg/store"
)

var showCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Show one MCP connection in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := resolveMCP(st, args[0])
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(rec)
	}

	out := output.DefaultWriter()
	out.Println("%s (%s)", rec.Name, rec.ID)
	out.Println("  Transport:   %s", rec.Transport)
	if rec.Transport.Remote() {
		out.Println("  URL:         %s", rec.URL())
		if rec.Remote != nil && len(rec.Remote.Headers) > 0 {
			out.Println("  Headers:     %s", strings.Join(sortedKeys(rec.Remote.Headers), ", "))
		}
	} else {
		out.Println("  Command:     %s", rec.Command())
		if args := rec.Args(); len(args) > 0 {
			out.Println("  Args:        %s", strings.Join(args, " "))
		}
	}
	if len(rec.Env) > 0 {
		out.Println("  Env:         %s", strings.Join(sortedKeys(rec.Env), ", "))
	}
	if rec.Category != "" {
		out.Println("  Category:    %s", rec.Category)
	}
	if rec.Description != "" {
		out.Println("  Description: %s", rec.Description)
	}
	if len(rec.Tags) > 0 {
		out.Println("  Tags:        %s", strings.Join(rec.Tags, ", "))
	}
	out.Println("  Status:      %s", status(rec))
	out.Println("  Used:        %d times, last %s", rec.UsageCount, rec.LastUsed.Format("2006-01-02 15:04"))
	return nil
}

// resolveMCP finds a record by id first, then by case-insensitive name
func resolveMCP(st *store.Store, ref string) (*mcp.Record, error) {
	if rec, err := st.GetMCP(ref); err == nil {
		return rec, nil
	}
	for _, r := range st.MCPs() {
		if strings.EqualFold(r.Name, ref) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no MCP named %q", ref)
}

// sortedKeys lists map keys without values, so secrets stay off the
// terminal.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
