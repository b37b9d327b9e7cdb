package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/output"
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an MCP connection",
	Long: `Add an MCP connection to the catalog.

With flags, the record is created directly. Without flags, an
interactive form walks through the fields.

If the new entry collides with an existing one (same name, same
command, or same URL), it is stored under a generated unique name.

Examples:
  mcpdepot add                                        # Interactive form
  mcpdepot add filesystem --command npx --args "-y,server-filesystem"
  mcpdepot add vercel --url https://mcp.vercel.com
  mcpdepot add search --url https://search.example/sse --transport sse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

var (
	addTransport   string
	addCommand     string
	addArgs        string
	addURL         string
	addHeaders     []string
	addEnv         []string
	addCategory    string
	addDescription string
	addTags        string
	addDisabled    bool
)

func init() {
	addCmd.Flags().StringVarP(&addTransport, "transport", "t", "", "Transport: stdio, http, sse (default: inferred)")
	addCmd.Flags().StringVarP(&addCommand, "command", "c", "", "Command for stdio servers")
	addCmd.Flags().StringVarP(&addArgs, "args", "a", "", "Comma-separated command arguments")
	addCmd.Flags().StringVarP(&addURL, "url", "u", "", "Endpoint for http/sse servers")
	addCmd.Flags().StringArrayVarP(&addHeaders, "header", "H", nil, "Request header as KEY=VALUE (repeatable)")
	addCmd.Flags().StringArrayVarP(&addEnv, "env", "e", nil, "Environment variable as KEY=VALUE (repeatable)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category label")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description")
	addCmd.Flags().StringVar(&addTags, "tags", "", "Comma-separated tags")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "Add in disabled state")
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	rec := &mcp.Record{
		Name:        name,
		Env:         parsePairs(addEnv),
		Category:    addCategory,
		Description: addDescription,
		Tags:        splitList(addTags),
		Disabled:    addDisabled,
	}

	if addCommand == "" && addURL == "" {
		if err := requireInteractive("add"); err != nil {
			return err
		}
		done, err := runAddForm(rec)
		if err != nil || !done {
			return err
		}
	} else {
		fillTransport(rec)
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	added, err := st.AddMCP(rec)
	if err != nil {
		return err
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(added)
	}
	out := output.DefaultWriter()
	if added.Name != rec.Name && rec.Name != "" {
		out.Warning("Name taken, stored as %q", added.Name)
	}
	out.Success("Added %q (%s)", added.Name, added.Transport)
	return nil
}

// fillTransport applies the flag values, inferring the transport when
// the flag is absent: a URL means http, a command means stdio.
func fillTransport(rec *mcp.Record) {
	transport := mcp.Transport(addTransport)
	if transport == "" {
		if addURL != "" {
			transport = mcp.TransportHTTP
		} else {
			transport = mcp.TransportStdio
		}
	}
	rec.Transport = transport

	if transport.Remote() {
		rec.Remote = &mcp.RemoteConfig{URL: addURL, Headers: parsePairs(addHeaders)}
		return
	}
	rec.Stdio = &mcp.StdioConfig{Command: addCommand, Args: splitList(addArgs)}
}

func runAddForm(rec *mcp.Record) (bool, error) {
	transport := string(mcp.TransportStdio)
	var command, argList, url string

	form := newStyledForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&rec.Name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Transport").
				Options(
					huh.NewOption("stdio (local command)", string(mcp.TransportStdio)),
					huh.NewOption("http (streamable)", string(mcp.TransportHTTP)),
					huh.NewOption("sse (server-sent events)", string(mcp.TransportSSE)),
				).
				Value(&transport),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Command").
				Description("Executable for stdio servers").
				Value(&command),
			huh.NewInput().
				Title("Arguments").
				Description("Comma-separated").
				Value(&argList),
		).WithHideFunc(func() bool { return mcp.Transport(transport).Remote() }),
		huh.NewGroup(
			huh.NewInput().
				Title("URL").
				Value(&url),
		).WithHideFunc(func() bool { return !mcp.Transport(transport).Remote() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Value(&rec.Description),
			huh.NewInput().
				Title("Category").
				Value(&rec.Category),
		),
	)

	done, err := runFormWithCancel(form, "add")
	if err != nil || !done {
		return done, err
	}

	rec.Transport = mcp.Transport(transport)
	if rec.Transport.Remote() {
		rec.Remote = &mcp.RemoteConfig{URL: url}
	} else {
		rec.Stdio = &mcp.StdioConfig{Command: command, Args: splitList(argList)}
	}
	return true, nil
}

// parsePairs converts KEY=VALUE strings into a map
func parsePairs(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// splitList splits a comma-separated flag value, trimming whitespace
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
