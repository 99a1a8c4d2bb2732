package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file (single artifact) or base path
	formats   string // comma-separated: svg, json, dot
	machine   string // machine ID or index
	active    string // comma-separated active state IDs
	rankdir   string // TB, LR, BT or RL
	noRouting bool   // ignore Graphviz edge routes
	pick      bool   // choose the machine interactively
	noCache   bool
	timeout   string // evaluation budget, e.g. "2s"

	themeState  string
	themeEdge   string
	themeActive string
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <script>",
		Short: "Render the machines of a script to SVG, JSON or DOT",
		Long: `Evaluate a statechart script and render every machine it defines.

With a single machine and format the artifact is written to --output (or
<script>.<format>). Otherwise one file per machine and format is written,
named <base>_<machine>.<format>. Use "-o -" to write a single artifact to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single artifact) or base path")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.machine, "machine", "m", "", "render only this machine (ID or index)")
	cmd.Flags().StringVar(&opts.active, "active", "", "highlight transitions leaving these states (comma-separated IDs)")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", "", "layout direction: TB (default), LR, BT, RL")
	cmd.Flags().BoolVar(&opts.noRouting, "no-routing", false, "draw straight edges instead of layout routes")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the machine interactively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().StringVar(&opts.timeout, "timeout", "", "script evaluation budget (e.g. 2s, 0 to disable)")
	cmd.Flags().StringVar(&opts.themeState, "theme-state", "", "state fill colour")
	cmd.Flags().StringVar(&opts.themeEdge, "theme-edge", "", "edge colour")
	cmd.Flags().StringVar(&opts.themeActive, "theme-active", "", "active edge colour")

	return cmd
}

// pipelineOptions merges the flags over the config file.
func (o renderOpts) pipelineOptions(cfg *Config) (pipeline.Options, error) {
	opts := cfg.pipelineOptions()
	if o.formats != "" {
		opts.Formats = splitList(o.formats)
	}
	if o.rankdir != "" {
		opts.RankDir = strings.ToUpper(o.rankdir)
	}
	if o.noRouting {
		off := false
		opts.Routing = &off
	}
	if o.timeout != "" {
		var d duration
		if err := d.UnmarshalText([]byte(o.timeout)); err != nil {
			return opts, err
		}
		opts.Timeout = d.Duration
		if opts.Timeout == 0 {
			opts.Timeout = -1
		}
	}
	opts.Machine = o.machine
	opts.Active = splitList(o.active)
	if o.themeState != "" {
		opts.Theme.State = o.themeState
	}
	if o.themeEdge != "" {
		opts.Theme.Edge = o.themeEdge
	}
	if o.themeActive != "" {
		opts.Theme.Active = o.themeActive
	}
	return opts, opts.ValidateAndSetDefaults()
}

func (c *CLI) runRender(cmd *cobra.Command, input string, ro renderOpts) error {
	ctx := cmd.Context()
	opts, err := ro.pipelineOptions(c.Config)
	if err != nil {
		return err
	}
	opts.Logger = c.Logger

	source, err := readScript(cmd, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Evaluating script...")
	spinner.Start()
	defs, err := runner.Extract(ctx, source, opts)
	if err != nil {
		stopFailed(spinner, "Could not evaluate %s", input)
		return err
	}
	if len(defs) == 0 {
		spinner.Stop()
		printWarning("No machines defined in %s", input)
		return nil
	}
	spinner.StopWithSuccess("Extracted %s", plural(len(defs), "machine"))

	if ro.pick && opts.Machine == "" && len(defs) > 1 {
		idx, err := pickMachine(defs)
		if err != nil {
			return err
		}
		opts.Machine = strconv.Itoa(idx)
	}

	spinner = newSpinnerWithContext(ctx, "Laying out...")
	spinner.Start()
	results, err := runner.Process(ctx, defs, opts)
	if err != nil {
		stopFailed(spinner, "Rendering failed")
		return err
	}
	spinner.Stop()

	outputs := planOutputs(input, ro.output, results, opts.Formats)
	if err := checkSingle(ro.output, outputs); err != nil {
		return err
	}
	for _, out := range outputs {
		if err := writeOutput(cmd.OutOrStdout(), out.path, out.data); err != nil {
			return err
		}
	}

	for _, mr := range results {
		printMachine(mr)
		warnUnreachable(ctx, mr.Definition.ID, mr.Unreachable)
		if mr.Pending > 0 {
			printWarning("%d edges could not be drawn", mr.Pending)
		}
	}
	return nil
}

// output is one file to write.
type output struct {
	path string
	data []byte
}

// planOutputs decides where each artifact is written.
func planOutputs(input, target string, results []*pipeline.MachineResult, formats []string) []output {
	if len(results) == 1 && len(formats) == 1 {
		path := target
		if path == "" {
			if input == stdio {
				path = stdio
			} else {
				path = basePath("", input) + "." + formats[0]
			}
		}
		return []output{{path: path, data: results[0].Artifacts[formats[0]]}}
	}

	base := basePath(target, input)
	if input == stdio && target == "" {
		base = "machine"
	}
	var outs []output
	for _, mr := range results {
		name := base
		if len(results) > 1 {
			name += "_" + fileSafe(mr.Definition.ID, mr.Index)
		}
		for _, f := range formats {
			outs = append(outs, output{path: name + "." + f, data: mr.Artifacts[f]})
		}
	}
	return outs
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .json, .dot), it strips that extension.
func basePath(output, input string) string {
	if output == "" || output == stdio {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// fileSafe turns a machine ID into a file name component, falling back to
// the capture index.
func fileSafe(id string, index int) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
	if strings.Trim(safe, "_.") == "" {
		return fmt.Sprintf("%d", index)
	}
	return safe
}

// checkSingle rejects writing several artifacts to stdout.
func checkSingle(target string, outputs []output) error {
	if target == stdio && len(outputs) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot write %d artifacts to stdout; pick one machine and format", len(outputs))
	}
	return nil
}
