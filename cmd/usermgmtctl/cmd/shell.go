package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  login <username|email> [password]   log in; prompts for the password when omitted
  logout                               forget the current login
  whoami                               show the current login
  me, passwd, users ..., import, export, stats
                                       same as the one-shot commands
  help                                 this text
  exit, quit                           leave the shell`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with a single login",
		Long: `Starts an interactive loop. The login made with "login" is kept in memory
for every following command and dropped on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.interactive = true
			if a.opts.username != "" && a.opts.password != "" {
				a.shellLogin(cmd.Context(), a.opts.username, a.opts.password)
			}
			return a.shell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (a *app) shell(ctx context.Context, in io.Reader, out io.Writer) error {
	pterm.Info.Println(`Type "help" for commands.`)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, a.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if done := a.shellLine(ctx, strings.Fields(scanner.Text()), in, out); done {
			return nil
		}
	}
}

func (a *app) prompt() string {
	if name := a.client.Session().Username(); name != "" {
		return name + "> "
	}
	return "> "
}

// shellLine executes one input line and reports whether the shell should end.
func (a *app) shellLine(ctx context.Context, fields []string, in io.Reader, out io.Writer) bool {
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "exit", "quit":
		a.client.Logout()
		return true
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "logout":
		a.client.Logout()
		pterm.Success.Println("Logged out.")
	case "whoami":
		auth, ok := a.client.Session().Current()
		if !ok {
			pterm.Info.Println("Not logged in.")
			break
		}
		pterm.Info.Printfln("%s (%s) roles=%v", auth.Username, auth.Email, auth.Roles)
	case "login":
		a.shellLoginArgs(ctx, fields[1:])
	case "shell":
		pterm.Warning.Println("Already in a shell.")
	default:
		sub := newRootCmd(a)
		sub.SetArgs(fields)
		sub.SetIn(in)
		sub.SetOut(out)
		if err := sub.ExecuteContext(ctx); err != nil {
			pterm.Error.Println(err)
		}
	}
	return false
}

func (a *app) shellLoginArgs(ctx context.Context, args []string) {
	switch len(args) {
	case 1:
		password, err := promptPassword("Password")
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		a.shellLogin(ctx, args[0], password)
	case 2:
		a.shellLogin(ctx, args[0], args[1])
	default:
		pterm.Warning.Println("usage: login <username|email> [password]")
	}
}

func (a *app) shellLogin(ctx context.Context, identifier, password string) {
	auth, err := call(ctx, a, "Logging in", func(ctx context.Context) (string, error) {
		res, err := a.client.Login(ctx, loginRequest(identifier, password))
		if err != nil {
			return "", err
		}
		return res.Username, nil
	})
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Success.Printfln("Logged in as %s", auth)
}
