package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/cirestech/usermgmt/pkg/client"
	"github.com/cirestech/usermgmt/pkg/logger"
)

var errCredentialsRequired = errors.New("credentials required: pass --username/--password or set " + envUsername + "/" + envPassword)

// app is the state shared by every command of one process. In shell mode
// the client, and with it the session, outlives individual commands.
type app struct {
	opts        *options
	client      *client.Client
	runner      *client.Runner
	stopRunner  context.CancelFunc
	interactive bool
}

func (a *app) init(opts *options) error {
	if a.client != nil {
		return nil
	}
	if strings.TrimSpace(opts.server) == "" {
		return errors.New("--server must not be empty")
	}
	a.opts = opts

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Output: os.Stderr, Level: level, Pretty: true, Service: "usermgmtctl"})

	a.client = client.New(opts.server, client.NewSession(), client.WithTimeout(opts.timeout))
	a.runner = client.NewRunner(0, opts.timeout, log)

	runCtx, cancel := context.WithCancel(context.Background())
	a.stopRunner = cancel
	a.runner.Start(runCtx)
	return nil
}

func (a *app) close() {
	if a.runner == nil {
		return
	}
	a.runner.Stop()
	a.stopRunner()
}

// authenticate makes sure the session holds a login. One-shot commands log in
// with the configured credentials; the shell requires an explicit login.
func (a *app) authenticate(ctx context.Context) error {
	if a.client.Session().IsAuthenticated() {
		return nil
	}
	if a.interactive {
		return errors.New("not logged in: use \"login <username>\" first")
	}
	if a.opts.username == "" || a.opts.password == "" {
		return errCredentialsRequired
	}
	_, err := call(ctx, a, "Logging in", func(ctx context.Context) (*client.AuthResponse, error) {
		return a.client.Login(ctx, loginRequest(a.opts.username, a.opts.password))
	})
	return err
}

func loginRequest(identifier, password string) client.LoginRequest {
	if strings.Contains(identifier, "@") {
		return client.LoginRequest{Email: identifier, Password: password}
	}
	return client.LoginRequest{Username: identifier, Password: password}
}

// call runs fn on the runner. In the shell a spinner shows while it is in
// flight.
func call[T any](ctx context.Context, a *app, label string, fn func(context.Context) (T, error)) (T, error) {
	var spinner *pterm.SpinnerPrinter
	if a.interactive {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(label + "...")
	}

	out := a.runner.Do(ctx, client.Task{
		Name: label,
		Run: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
	})

	if spinner != nil {
		_ = spinner.Stop()
	}

	var zero T
	if out.Err != nil {
		return zero, out.Err
	}
	v, _ := out.Value.(T)
	return v, nil
}
