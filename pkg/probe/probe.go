// Package probe connects to configured MCP servers to verify they are
// reachable and to enumerate the tools they expose.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// Tool describes a tool advertised by a server
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Result is the outcome of probing a single record
type Result struct {
	Healthy bool          `json:"healthy"`
	Tools   []Tool        `json:"tools,omitempty"`
	Error   error         `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Prober performs the MCP initialize handshake against stored records
type Prober struct {
	timeout time.Duration
}

// New creates a Prober with the default 10 second timeout
func New() *Prober {
	return &Prober{timeout: 10 * time.Second}
}

// WithTimeout sets the per-probe timeout
func (p *Prober) WithTimeout(d time.Duration) *Prober {
	p.timeout = d
	return p
}

// Check connects to the record's server, performs the initialize
// handshake, and lists its tools.
func (p *Prober) Check(ctx context.Context, rec *mcp.Record) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := Result{}

	tools, err := p.listTools(ctx, rec)
	if err != nil {
		result.Error = err
		result.Latency = time.Since(start)
		return result
	}

	result.Healthy = true
	result.Tools = tools
	result.Latency = time.Since(start)
	return result
}

// ListTools connects to the record's server and returns its tools
func (p *Prober) ListTools(ctx context.Context, rec *mcp.Record) ([]Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.listTools(ctx, rec)
}

func (p *Prober) listTools(ctx context.Context, rec *mcp.Record) ([]Tool, error) {
	transport, err := p.transport(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "mcpdepot",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer session.Close()

	toolsResult, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	var tools []Tool
	for _, t := range toolsResult.Tools {
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return tools, nil
}

// transport builds the SDK transport matching the record's variant
func (p *Prober) transport(rec *mcp.Record) (mcpsdk.Transport, error) {
	switch rec.Transport {
	case mcp.TransportHTTP, mcp.TransportSSE:
		if rec.URL() == "" {
			return nil, fmt.Errorf("remote server requires a URL")
		}
		httpClient := &http.Client{Timeout: p.timeout}
		if rec.Remote != nil && len(rec.Remote.Headers) > 0 {
			httpClient.Transport = &headerTransport{
				headers: rec.Remote.Headers,
				base:    http.DefaultTransport,
			}
		}
		return &mcpsdk.StreamableClientTransport{
			Endpoint:   rec.URL(),
			HTTPClient: httpClient,
		}, nil

	case mcp.TransportStdio, "":
		if rec.Command() == "" {
			return nil, fmt.Errorf("stdio server requires a command")
		}
		cmd := exec.Command(rec.Command(), rec.Args()...)
		if len(rec.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range rec.Env {
				cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
			}
		}
		return &mcpsdk.CommandTransport{Command: cmd}, nil

	default:
		return nil, fmt.Errorf("unsupported transport: %s", rec.Transport)
	}
}

// headerTransport injects stored request headers into every request
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
