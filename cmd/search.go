package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search recorded commands",
	Long: `Search the execution history for commands matching a regular
expression, optionally scoped to one project.

Examples:
  hist-ng search "git"
  hist-ng search --project api "^make "`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearchCommand(args[0])
	},
}

var (
	searchProject string
	searchFormat  string
	searchLimit   int
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "Limit the search to one project")
	searchCmd.Flags().StringVar(&searchFormat, "format", "%i  %t  [%p] %c", "Output format")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of matches to show (0 = all)")
}

func runSearchCommand(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return histerrors.NewValidationErrorWithCause("pattern",
			"bad regular expression "+pattern, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	filter := store.Filter{Order: store.OrderAsc}
	if searchProject != "" {
		filter.Projects = []string{searchProject}
	}

	records, err := s.QueryExecutions(filter)
	if err != nil {
		return err
	}

	index := 0
	for _, rec := range records {
		if !re.MatchString(rec.Command) {
			continue
		}
		index++
		fmt.Println(formatRecord(index, rec, searchFormat))
		if searchLimit > 0 && index >= searchLimit {
			break
		}
	}

	return nil
}
