package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/recorder"
	"thoreinstein.com/histng/pkg/session"
)

// sessionCmd opens (or refreshes) a session's materialized history file and
// prints its path. The shell integration swaps its HISTFILE to that path on
// every prompt.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open or refresh a session history file",
	Long: `Open the materialized history file for a shell session and print its
path on stdout.

On first open the file holds the project's prior history, bounded by
session.max_lines. With --append, the given command line is recorded and
appended to the file first; a failed append is reported as a warning but
the session stays usable, since losing shell history entirely is worse
than missing one entry.

Re-running with the same token is safe: the same file is reused, never
duplicated.

Examples:
  export HISTNG_SESSION=$(uuidgen)
  HISTFILE=$(hist-ng session --token "$HISTNG_SESSION" --project api)
  hist-ng session --token "$HISTNG_SESSION" --project api --append "$(fc -ln -1)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCommand()
	},
}

// sessionCloseCmd removes a session's materialized file. The session row
// stays in the store for audit.
var sessionCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Remove a session's history file",
	Long:  `Remove the materialized history file for a session token, typically on shell exit.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCloseCommand()
	},
}

var (
	sessionToken   string
	sessionProject string
	sessionPwd     string
	sessionAppend  string
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionCloseCmd)

	sessionCmd.Flags().StringVarP(&sessionToken, "token", "t", "", "Session token (generated when omitted)")
	sessionCmd.Flags().StringVarP(&sessionProject, "project", "p", "", "Project whose history to materialize (default from config)")
	sessionCmd.Flags().StringVar(&sessionPwd, "pwd", "", "Working directory of the session (default: current directory)")
	sessionCmd.Flags().StringVarP(&sessionAppend, "append", "a", "", "Record this command line and append it to the file")

	sessionCloseCmd.Flags().StringVarP(&sessionToken, "token", "t", "", "Session token")
	_ = sessionCloseCmd.MarkFlagRequired("token")
}

func runSessionCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	pwd, err := resolvePwd(sessionPwd)
	if err != nil {
		return err
	}

	token := sessionToken
	if token == "" {
		// The shell normally derives and exports the token; generating one
		// here covers ad-hoc use.
		token = uuid.NewString()
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := recorder.New(s, cfg.Record.DefaultProject, nil)
	mat := session.NewMaterializer(s, rec, cfg.Session.Dir, cfg.Session.MaxLines, verbose)

	handle, err := mat.Open(token, resolveProject(cfg, sessionProject), pwd)
	if err != nil {
		return err
	}
	// No Close here: the file must outlive this invocation for the shell to
	// read. 'session close' releases it on shell exit.

	if sessionAppend != "" {
		if err := handle.Refresh(sessionAppend); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to append last command: %v\n", err)
		}
	}

	fmt.Println(handle.Path())
	return nil
}

func runSessionCloseCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return histerrors.Wrap(err, "failed to load configuration")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	mat := session.NewMaterializer(s, nil, cfg.Session.Dir, cfg.Session.MaxLines, verbose)
	return mat.Release(sessionToken)
}
