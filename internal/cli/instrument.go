package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/rewrite"
)

// InstrumentOptions holds flags for the instrument command.
type InstrumentOptions struct {
	*RootOptions
	Output string // output file path
	Points bool   // print the point manifest instead of the source
}

// InstrumentResult holds the rewritten source and its point manifest.
type InstrumentResult struct {
	File   string          `json:"file"`
	Source string          `json:"source"`
	Points []rewrite.Point `json:"points"`
}

// NewInstrumentCommand creates the instrument command.
func NewInstrumentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstrumentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instrument <script.hsl>",
		Short: "Rewrite a script with trace recording calls",
		Long: `Rewrite a script so every assignment, branch, loop and call
reports itself to the trace recorder, and print the result.

The rewrite only inserts statements; original lines keep their line
numbers, so recorded events point back into the file you wrote.

Examples:
  hindsight instrument script.hsl
  hindsight instrument script.hsl -o script_traced.hsl
  hindsight instrument script.hsl --points
  hindsight instrument script.hsl --points --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstrument(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write instrumented source to file")
	cmd.Flags().BoolVar(&opts.Points, "points", false, "print the injected point manifest instead of the source")

	return cmd
}

func runInstrument(opts *InstrumentOptions, path string, cmd *cobra.Command) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read script", err)
	}

	text, points, err := driver.InstrumentSource(string(src), path)
	if err != nil {
		return commandError(cmd.OutOrStdout(), opts.Format, ExitCommandError, runErrorCode(err), err.Error())
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
	}

	result := InstrumentResult{File: path, Source: text, Points: points}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputInstrumentText(cmd, opts, result)
}

func outputInstrumentText(cmd *cobra.Command, opts *InstrumentOptions, result InstrumentResult) error {
	w := cmd.OutOrStdout()

	if opts.Points {
		fmt.Fprintf(w, "Injected %d point(s) into %s\n\n", len(result.Points), result.File)
		for _, p := range result.Points {
			fmt.Fprintf(w, "  site %-4d line %-4d %s\n", p.Site, p.Line, p.Kind)
		}
		return nil
	}

	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote instrumented source to %s (%d points)\n", opts.Output, len(result.Points))
		return nil
	}

	fmt.Fprint(w, result.Source)
	return nil
}
