package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/graph"
)

// Extract output formats.
const (
	extractJSON = "json"
	extractText = "text"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	format  string // "json" or "text"
	output  string // output file, stdout when empty or "-"
	noCache bool
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	opts := extractOpts{format: extractJSON}

	cmd := &cobra.Command{
		Use:   "extract <script>",
		Short: "Print the machines defined by a script",
		Long: `Evaluate a statechart script in the sandbox and print every machine it
defines, in the order they were created. Use "-" to read the script from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != extractJSON && opts.format != extractText {
				return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be json or text)", opts.format)
			}
			return c.runExtract(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json or text")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runExtract(cmd *cobra.Command, input string, opts extractOpts) error {
	ctx := cmd.Context()
	source, err := readScript(cmd, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	defs, err := runner.Extract(ctx, source, c.Config.pipelineOptions())
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Extracted %d machines", len(defs)))

	graphs := make([]*graph.DirectedGraph, len(defs))
	unreachable := make([][]string, len(defs))
	for i, d := range defs {
		graphs[i] = graph.FromMachine(d)
		unreachable[i] = graph.Unreachable(graphs[i])
		warnUnreachable(ctx, graphs[i].ID, unreachable[i])
	}

	var data []byte
	switch opts.format {
	case extractText:
		out, err := renderMarkdown(machinesMarkdown(graphs, unreachable))
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		data = []byte(out)
	default:
		data, err = graph.MarshalGraphs(graphs)
		if err != nil {
			return err
		}
		data = append(data, '\n')
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, data)
}

// warnUnreachable logs the states of a machine that can never be entered.
func warnUnreachable(ctx context.Context, machineID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	loggerFromContext(ctx).Warn("unreachable states", "machine", machineID, "states", strings.Join(ids, ", "))
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == stdio {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// renderMarkdown renders markdown for the terminal.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// machinesMarkdown summarizes the machines as a markdown document.
func machinesMarkdown(graphs []*graph.DirectedGraph, unreachable [][]string) string {
	var b strings.Builder
	if len(graphs) == 0 {
		b.WriteString("_No machines defined._\n")
		return b.String()
	}
	for i, g := range graphs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %d. `%s`\n\n", i, g.ID)
		fmt.Fprintf(&b, "%d states, %d transitions", len(g.Nodes), len(g.Edges))
		if root, ok := g.Node(g.Root); ok && root.Initial != "" {
			fmt.Fprintf(&b, ", initial `%s`", root.Initial)
		}
		b.WriteString("\n\n")

		b.WriteString("| State | Type | Transitions |\n")
		b.WriteString("|---|---|---|\n")
		for _, n := range g.Nodes {
			var out []string
			for _, e := range g.OutEdges(n.ID) {
				out = append(out, fmt.Sprintf("%s → `%s`", mdEscape(e.Label), e.Target))
			}
			fmt.Fprintf(&b, "| %s`%s` | %s | %s |\n",
				strings.Repeat("· ", n.Depth), n.ID, n.Type, strings.Join(out, "<br>"))
		}

		if i < len(unreachable) && len(unreachable[i]) > 0 {
			b.WriteString("\n> **Unreachable:** ")
			for j, id := range unreachable[i] {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "`%s`", id)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// mdEscape escapes characters that would break a markdown table cell.
func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "[", `\[`).Replace(s)
}
