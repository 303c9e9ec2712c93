package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nstehr/sift/feed"
	"github.com/nstehr/sift/model"
	"github.com/nstehr/sift/rules"
	"github.com/nstehr/sift/session"
	"github.com/nstehr/sift/sink"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	RuleSetOptions
	Input       string
	InputFormat string

	// TraceIDs overrides the trace id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	TraceIDs TraceIDGenerator
}

// DispatchReport is the JSON payload of a successful dispatch.
type DispatchReport struct {
	RuleSet   string          `json:"rule_set"`
	Policy    string          `json:"policy"`
	Stats     session.Stats   `json:"stats"`
	Emissions []sink.Emission `json:"emissions"`
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}
	return newDispatchCommand(opts)
}

func newDispatchCommand(opts *DispatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch [category [payload...]]",
		Short: "Dispatch records through a rule set",
		Long: `Dispatch records through a rule set and print what the actions emit.

With arguments, a single record is built from them. Otherwise records are
read one per line from --input (stdin by default).

Example:
  sift dispatch info Server started
  sift dispatch --preset notify --input events.txt
  sift dispatch --rules alerts.yaml --input-format json < events.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesFile, "rules", "", "path to a YAML rule set")
	cmd.Flags().StringVar(&opts.Preset, "preset", "levels", "built-in rule set ("+strings.Join(rules.PresetNames(), "|")+")")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "override the rule set policy (first-match|all-match)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", "file to read records from, - for stdin")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "text", "record format (text|json)")
	cmd.MarkFlagsMutuallyExclusive("rules", "preset")

	return cmd
}

func runDispatch(opts *DispatchOptions, args []string, cmd *cobra.Command) error {
	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = UUIDv7Generator{}
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		TraceID:   traceIDs.Generate(),
	}
	logger := slog.Default().With("trace_id", formatter.TraceID)

	if _, _, err := opts.policy(); err != nil {
		return fail(formatter, ErrCodeInvalidFlag, ExitCommandError, "invalid --policy", err)
	}
	format, err := feed.ParseFormat(opts.InputFormat)
	if err != nil {
		return fail(formatter, ErrCodeInvalidFlag, ExitCommandError, "invalid --input-format", err)
	}

	rs, err := opts.load()
	if err != nil {
		return fail(formatter, ErrCodeRuleSet, ExitCommandError, "load rule set", err)
	}
	d, err := rs.Build(rules.DefaultActions())
	if err != nil {
		return fail(formatter, ErrCodeRuleSet, ExitCommandError, "build rule set", err)
	}
	logger.Debug("rule set loaded", "source", opts.source(), "name", rs.Name, "policy", d.Policy(), "rules", d.RuleNames())

	// JSON output needs every emission before it can print the response.
	var recorder *sink.Recorder
	var out rules.Sink
	if opts.Format == "json" {
		recorder = sink.NewRecorder()
		out = recorder
	} else {
		out = sink.NewWriter(cmd.OutOrStdout())
	}
	s := session.New(d, out)

	if len(args) > 0 {
		err = s.Handle(model.Record{Category: args[0], Payload: strings.Join(args[1:], " ")})
	} else {
		err = pumpInput(opts.Input, format, s, cmd)
	}

	if err != nil {
		logger.Error("dispatch failed", "error", err)
		var de *rules.DispatchError
		if errors.As(err, &de) {
			return fail(formatter, ErrCodeDispatch, ExitFailure, "dispatch failed", err)
		}
		return fail(formatter, ErrCodeInput, ExitCommandError, "read input", err)
	}

	stats := s.Stats()
	formatter.VerboseLog("dispatched %d record(s): %d rule action(s), %d fallback(s)", stats.Records, stats.Matched, stats.Fallbacks)
	if recorder == nil {
		return nil
	}
	emissions := recorder.Emissions()
	if emissions == nil {
		emissions = []sink.Emission{}
	}
	return formatter.Success(DispatchReport{
		RuleSet:   rs.Name,
		Policy:    d.Policy().String(),
		Stats:     stats,
		Emissions: emissions,
	})
}

func pumpInput(path string, format feed.Format, s *session.Session, cmd *cobra.Command) error {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	src, err := feed.NewReader(in, format)
	if err != nil {
		return err
	}
	_, err = s.Run(cmd.Context(), src)
	return err
}
