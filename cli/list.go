package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nstehr/sift/rules"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	RuleSetOptions
	YAML bool
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show a rule set in evaluation order",
		Long: `Show the rules of a preset or rule set file in the order they are evaluated.

Use --yaml to print a preset as a rule set file to start from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesFile, "rules", "", "path to a YAML rule set")
	cmd.Flags().StringVar(&opts.Preset, "preset", "levels", "built-in rule set ("+strings.Join(rules.PresetNames(), "|")+")")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "override the rule set policy (first-match|all-match)")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "print the rule set as YAML")
	cmd.MarkFlagsMutuallyExclusive("rules", "preset")

	return cmd
}

func runRules(opts *RulesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, _, err := opts.policy(); err != nil {
		return fail(formatter, ErrCodeInvalidFlag, ExitCommandError, "invalid --policy", err)
	}
	rs, err := opts.load()
	if err != nil {
		return fail(formatter, ErrCodeRuleSet, ExitCommandError, "load rule set", err)
	}

	switch {
	case opts.YAML:
		data, err := rs.YAML()
		if err != nil {
			return fail(formatter, ErrCodeGeneric, ExitFailure, "encode rule set", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	case opts.Format == "json":
		return formatter.Success(rs)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", rs.Name, rs.Policy)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tWHEN\tACTION")
	for i, r := range rs.Rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Name, r.When, describeAction(r.Do))
	}
	if rs.Fallback != nil {
		fmt.Fprintf(tw, "-\t(fallback)\t\t%s\n", describeAction(*rs.Fallback))
	} else {
		fmt.Fprintf(tw, "-\t(fallback)\t\tno handler notice\n")
	}
	return tw.Flush()
}

func describeAction(spec rules.ActionSpec) string {
	switch {
	case spec.Expr != "":
		return fmt.Sprintf("%s %s", spec.Kind, spec.Expr)
	case spec.Prefix != "":
		return fmt.Sprintf("%s %q", spec.Kind, spec.Prefix)
	default:
		return string(spec.Kind)
	}
}
