package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/pkg/output"
	"github.com/mcpdepot/mcpdepot/pkg/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe <name|id>...",
	Short: "Check that MCP servers respond",
	Long: `Connect to stored MCP servers, perform the initialize handshake,
and list the tools they expose.

Probing a server also bumps its usage counter.

Examples:
  mcpdepot probe filesystem
  mcpdepot probe github vercel --timeout 5s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

var probeTimeout time.Duration

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "Per-server timeout")
}

func runProbe(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	prober := probe.New().WithTimeout(probeTimeout)
	out := output.DefaultWriter()

	var infos []output.ProbeInfo
	for _, ref := range args {
		rec, err := resolveMCP(st, ref)
		if err != nil {
			return err
		}

		result := prober.Check(cmd.Context(), rec)
		if result.Healthy {
			st.MarkUsed(rec.ID)
		}

		if JSONOutput {
			infos = append(infos, probeInfo(rec.Name, result))
			continue
		}

		if result.Healthy {
			out.Success("%s: healthy, %d tools (%s)", rec.Name, len(result.Tools), result.Latency.Round(time.Millisecond))
			for _, tool := range result.Tools {
				out.Println("    %s", tool.Name)
			}
		} else {
			out.Error("%s: %v", rec.Name, result.Error)
		}
	}

	if JSONOutput {
		return output.NewJSONWriter().WriteSuccess(map[string]any{"results": infos})
	}
	return nil
}

func probeInfo(name string, result probe.Result) output.ProbeInfo {
	info := output.ProbeInfo{
		Name:      name,
		Healthy:   result.Healthy,
		LatencyMS: result.Latency.Milliseconds(),
	}
	for _, tool := range result.Tools {
		info.Tools = append(info.Tools, tool.Name)
	}
	if result.Error != nil {
		info.Error = result.Error.Error()
	}
	return info
}
