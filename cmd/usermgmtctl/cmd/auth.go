package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cirestech/usermgmt/pkg/client"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print the issued token",
		Long: `Logs in with --username/--password. Sessions are never written to disk,
so the token is printed for use with other tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			auth, _ := a.client.Session().Current()
			pterm.Success.Printfln("Logged in as %s (%s)", auth.Username, auth.Email)
			pterm.Info.Printfln("Roles: %v", auth.Roles)
			pterm.Info.Printfln("Expires at: %s", auth.ExpiresAt.Local().Format(time.RFC1123))
			pterm.Println(auth.AccessToken)
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a regular account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Username, req.Password = a.opts.username, a.opts.password
			if req.Username == "" || req.Password == "" {
				return errCredentialsRequired
			}
			if req.Email == "" {
				return errors.New("--email is required")
			}
			msg, err := call(cmd.Context(), a, "Registering", func(ctx context.Context) (string, error) {
				return a.client.Register(ctx, req)
			})
			if err != nil {
				return err
			}
			pterm.Success.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	return cmd
}

func newMeCmd(a *app) *cobra.Command {
	var update profileFlags

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show or update your own profile",
		Long:  `Shows your profile. Passing any profile flag updates those fields first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			u, err := call(cmd.Context(), a, "Loading profile", func(ctx context.Context) (*client.User, error) {
				if up, ok := update.toUpdate(cmd); ok {
					return a.client.UpdateMe(ctx, up)
				}
				return a.client.Me(ctx)
			})
			if err != nil {
				return err
			}
			renderUser(u)
			return nil
		},
	}
	update.register(cmd)
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	var next string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if next == "" {
				return errors.New("--new is required")
			}
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			current := a.opts.password
			if a.interactive {
				var err error
				if current, err = promptPassword("Current password"); err != nil {
					return err
				}
			}
			msg, err := call(cmd.Context(), a, "Changing password", func(ctx context.Context) (string, error) {
				return a.client.ChangePassword(ctx, current, next)
			})
			if err != nil {
				return err
			}
			pterm.Success.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}

func promptPassword(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show(label)
}
