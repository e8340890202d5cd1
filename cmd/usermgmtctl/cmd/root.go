package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// defaultServer matches the API's default PORT.
const defaultServer = "http://localhost:9090"

const (
	envServer   = "USERMGMT_SERVER"
	envUsername = "USERMGMT_USERNAME"
	envPassword = "USERMGMT_PASSWORD"
)

// options are the persistent flags of one command tree.
type options struct {
	server   string
	username string
	password string
	timeout  time.Duration
	verbose  bool
}

// Execute runs the root command
func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "usermgmtctl",
		Short: "User management CLI",
		Long: `usermgmtctl talks to the user management API. One-shot commands log in
with --username/--password (or USERMGMT_USERNAME/USERMGMT_PASSWORD) for the
duration of the call; "shell" keeps a single login for the whole session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyEnv(cmd, opts)
			return a.init(opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", defaultServer, "API server URL (also "+envServer+")")
	flags.StringVarP(&opts.username, "username", "u", "", "username or email to log in with (also "+envUsername+")")
	flags.StringVarP(&opts.password, "password", "p", "", "password to log in with (also "+envPassword+")")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log client activity to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newMeCmd(a),
		newPasswdCmd(a),
		newUsersCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newStatsCmd(a),
	)
	if !a.interactive {
		root.AddCommand(newShellCmd(a))
	}
	return root
}

// applyEnv fills flags the user did not set from the environment.
func applyEnv(cmd *cobra.Command, opts *options) {
	fallback := func(flag, env string, dst *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	fallback("server", envServer, &opts.server)
	fallback("username", envUsername, &opts.username)
	fallback("password", envPassword, &opts.password)
}
