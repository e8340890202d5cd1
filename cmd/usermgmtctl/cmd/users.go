package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cirestech/usermgmt/pkg/client"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer user accounts",
		Long:  `Directory management commands. All of them except "get" on yourself need the admin role.`,
	}
	cmd.AddCommand(
		newUsersListCmd(a),
		newUsersGetCmd(a),
		newUsersUpdateCmd(a),
		newUsersDeleteCmd(a),
		newUsersRoleCmd(a),
		newUsersStatusCmd(a, "enable", true),
		newUsersStatusCmd(a, "disable", false),
	)
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			page, err := call(cmd.Context(), a, "Listing users", func(ctx context.Context) (*client.UserPage, error) {
				return a.client.ListUsers(ctx, opts)
			})
			if err != nil {
				return err
			}
			if len(page.Users) == 0 {
				pterm.Info.Println("No users found.")
			} else {
				_ = pterm.DefaultTable.WithHasHeader().WithData(userTable(page.Users)).Render()
			}
			pterm.Info.Printfln("Page %d of %d, %d user(s) in total", page.CurrentPage+1, max(page.TotalPages, 1), page.TotalItems)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&opts.Size, "size", 10, "page size (max 100)")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "username", "sort field: id, username, email, firstName, lastName, company, createdAt, lastLogin")
	cmd.Flags().StringVar(&opts.SortDir, "sort-dir", "asc", "asc or desc")
	cmd.Flags().StringVar(&opts.Search, "search", "", "case-insensitive substring filter")
	return cmd
}

func newUsersGetCmd(a *app) *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "get <username|id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			u, err := call(cmd.Context(), a, "Loading user", func(ctx context.Context) (*client.User, error) {
				if byID {
					return a.client.GetUserByID(ctx, args[0])
				}
				return a.client.GetUser(ctx, args[0])
			})
			if err != nil {
				return err
			}
			renderUser(u)
			return nil
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a user id")
	return cmd
}

func newUsersUpdateCmd(a *app) *cobra.Command {
	var update profileFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update another user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, ok := update.toUpdate(cmd)
			if !ok {
				return errors.New("nothing to update: pass at least one profile flag")
			}
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			u, err := call(cmd.Context(), a, "Updating user", func(ctx context.Context) (*client.User, error) {
				return a.client.UpdateUser(ctx, args[0], up)
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

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.message(cmd.Context(), "Deleting user", func(ctx context.Context) (string, error) {
				return a.client.DeleteUser(ctx, args[0])
			})
		},
	}
}

func newUsersRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <role>",
		Short: "Change a user's role (user or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.message(cmd.Context(), "Updating role", func(ctx context.Context) (string, error) {
				return a.client.SetRole(ctx, args[0], args[1])
			})
		},
	}
}

func newUsersStatusCmd(a *app, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("%s a user account", capitalize(use)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.message(cmd.Context(), "Updating status", func(ctx context.Context) (string, error) {
				return a.client.SetEnabled(ctx, args[0], enabled)
			})
		},
	}
}

// message authenticates, runs fn and prints the server's confirmation.
func (a *app) message(ctx context.Context, label string, fn func(context.Context) (string, error)) error {
	if err := a.authenticate(ctx); err != nil {
		return err
	}
	msg, err := call(ctx, a, label, fn)
	if err != nil {
		return err
	}
	pterm.Success.Println(msg)
	return nil
}
