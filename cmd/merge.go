package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"thoreinstein.com/histng/pkg/config"
	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/merge"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge histories across projects",
	Long: `Print executions from multiple projects as one listing, either
interleaved into a single chronological stream or concatenated per project.

Projects are chosen with exactly one of --projects (explicit set) or
--exclude-projects (everything else); with neither, all projects are
merged. Exclusion patterns drop matching commands: --exclude matches a
literal substring, --exclude-regex a regular expression, both
case-sensitive.

Examples:
  hist-ng merge --projects api,web
  hist-ng merge --exclude-projects scratch --mode concat
  hist-ng merge --from "2025-08-01" --to "2025-08-31" --exclude-regex '^ls'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMergeCommand(cmd.Flags())
	},
}

var (
	mergeProjects        []string
	mergeExcludeProjects []string
	mergeExcludeLiterals []string
	mergeExcludeRegexps  []string
	mergeMode            string
	mergeFrom            string
	mergeTo              string
	mergeFormat          string
)

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringSliceVar(&mergeProjects, "projects", nil, "Projects to merge (comma separated)")
	mergeCmd.Flags().StringSliceVar(&mergeExcludeProjects, "exclude-projects", nil, "Merge all projects except these")
	mergeCmd.Flags().StringArrayVar(&mergeExcludeLiterals, "exclude", nil, "Drop commands containing this substring (repeatable)")
	mergeCmd.Flags().StringArrayVar(&mergeExcludeRegexps, "exclude-regex", nil, "Drop commands matching this regular expression (repeatable)")
	mergeCmd.Flags().StringVar(&mergeMode, "mode", "interleave", "Merge mode: interleave or concat")
	mergeCmd.Flags().StringVar(&mergeFrom, "from", "", "Start of time range (inclusive)")
	mergeCmd.Flags().StringVar(&mergeTo, "to", "", "End of time range (inclusive)")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", "", "Output format (%i index, %c command, %p project, %s session, %d pwd, %t time)")
}

func runMergeCommand(flags *pflag.FlagSet) error {
	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	opts, err := buildMergeOptions(cfg, flags)
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := merge.NewEngine(s).Merge(opts)
	if err != nil {
		return err
	}

	format := mergeFormat
	if format == "" {
		format = cfg.Merge.Format
	}
	for i, rec := range records {
		fmt.Println(formatRecord(i+1, rec, format))
	}

	return nil
}

// buildMergeOptions translates the flag surface into engine options.
func buildMergeOptions(cfg *config.Config, flags *pflag.FlagSet) (merge.Options, error) {
	var opts merge.Options

	selector, err := buildSelector(flags.Changed("projects"), mergeProjects,
		flags.Changed("exclude-projects"), mergeExcludeProjects)
	if err != nil {
		return opts, err
	}
	opts.Selector = selector

	opts.Mode, err = merge.ParseMode(mergeMode)
	if err != nil {
		return opts, err
	}

	opts.Patterns, err = collectPatterns(
		append(cfg.Merge.ExcludePatterns, mergeExcludeLiterals...),
		append(cfg.Merge.ExcludeRegexps, mergeExcludeRegexps...))
	if err != nil {
		return opts, err
	}

	if mergeFrom != "" {
		from, err := parseTimeString(mergeFrom)
		if err != nil {
			return opts, histerrors.Wrap(err, "invalid --from time")
		}
		opts.From = &from
	}
	if mergeTo != "" {
		to, err := parseTimeString(mergeTo)
		if err != nil {
			return opts, histerrors.Wrap(err, "invalid --to time")
		}
		opts.To = &to
	}

	return opts, nil
}

// buildSelector maps the two project flags onto the engine's
// inclusion-xor-exclusion selector. Giving neither means "all projects",
// expressed as an empty exclusion set.
func buildSelector(includeSet bool, include []string, excludeSet bool, exclude []string) (merge.Selector, error) {
	switch {
	case includeSet && excludeSet:
		return merge.Selector{}, histerrors.NewValidationError("projects",
			"--projects and --exclude-projects are mutually exclusive")
	case includeSet:
		if len(include) == 0 {
			return merge.Selector{}, histerrors.NewValidationError("projects",
				"--projects requires at least one project")
		}
		return merge.Selector{Include: include}, nil
	case excludeSet:
		return merge.Selector{Exclude: exclude}, nil
	default:
		return merge.Selector{Exclude: []string{}}, nil
	}
}

// collectPatterns builds the tagged pattern list from literal substrings
// and regular expressions.
func collectPatterns(literals, regexps []string) ([]merge.Pattern, error) {
	patterns := make([]merge.Pattern, 0, len(literals)+len(regexps))
	for _, text := range literals {
		patterns = append(patterns, merge.Literal(text))
	}
	for _, expr := range regexps {
		p, err := merge.Regexp(expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
