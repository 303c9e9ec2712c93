package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstehr/sift/rules"
)

// CheckResult reports whether one rule set file loads and compiles.
type CheckResult struct {
	File   string `json:"file"`
	Valid  bool   `json:"valid"`
	Name   string `json:"name,omitempty"`
	Policy string `json:"policy,omitempty"`
	Rules  int    `json:"rules"`
	Error  string `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <rules.yaml>...",
		Short: "Validate rule set files without dispatching",
		Long: `Parse each rule set, compile its conditions and resolve its actions.

Exits non-zero if any file fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]CheckResult, 0, len(files))
	failed := 0
	for _, file := range files {
		res := checkFile(file)
		if !res.Valid {
			failed++
		}
		results = append(results, res)
		formatter.VerboseLog("checked %s", file)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "ok    %s: %s (%d rules, %s)\n", res.File, res.Name, res.Rules, res.Policy)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %s\n", res.File, res.Error)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d rule set(s) invalid", failed, len(files)))
	}
	return nil
}

func checkFile(file string) CheckResult {
	res := CheckResult{File: file}
	rs, err := rules.LoadRuleSet(file)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	d, err := rs.Build(rules.DefaultActions())
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	res.Name = rs.Name
	res.Policy = d.Policy().String()
	res.Rules = d.Len()
	return res
}
