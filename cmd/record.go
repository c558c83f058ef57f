package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/recorder"
)

// recordCmd represents the cmd command: the per-prompt recording hook the
// shell integration invokes with the last executed command line.
var recordCmd = &cobra.Command{
	Use:   "cmd <command>...",
	Short: "Record a command execution",
	Long: `Record one command execution under the current project and working
directory.

Blank command lines are silently dropped; shells routinely surface empty
entries on save races and those are not worth an error.

Examples:
  hist-ng cmd "git status"
  hist-ng cmd --project api --session "$HISTNG_SESSION" -- make test`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecordCommand(strings.Join(args, " "))
	},
}

var (
	recordProject string
	recordSession string
	recordPwd     string
	recordTime    string
)

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVarP(&recordProject, "project", "p", "", "Project to record under (default from config)")
	recordCmd.Flags().StringVarP(&recordSession, "session", "s", "", "Session token to attribute the execution to")
	recordCmd.Flags().StringVar(&recordPwd, "pwd", "", "Working directory of the execution (default: current directory)")
	recordCmd.Flags().StringVar(&recordTime, "time", "", "Execution time (default: now)")
}

func runRecordCommand(rawLine string) error {
	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	pwd, err := resolvePwd(recordPwd)
	if err != nil {
		return err
	}

	when := time.Now()
	if recordTime != "" {
		when, err = parseTimeString(recordTime)
		if err != nil {
			return err
		}
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var sessionID *int64
	if recordSession != "" {
		id, err := s.RegisterSession(recordSession)
		if err != nil {
			return err
		}
		sessionID = &id
	}

	rec := recorder.New(s, cfg.Record.DefaultProject, nil)
	result, err := rec.Record(rawLine, recordProject, pwd, when, sessionID)
	if err != nil {
		return err
	}

	if verbose {
		switch {
		case result.Skipped:
			fmt.Fprintln(os.Stderr, "skipped blank command line")
		case result.CommandCreated:
			fmt.Fprintf(os.Stderr, "recorded execution %d under %s (new command)\n", result.ExecutionID, result.Project)
		default:
			fmt.Fprintf(os.Stderr, "recorded execution %d under %s\n", result.ExecutionID, result.Project)
		}
	}

	return nil
}
