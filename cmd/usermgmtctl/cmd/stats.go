package cmd

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cirestech/usermgmt/pkg/client"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show directory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authenticate(cmd.Context()); err != nil {
				return err
			}
			s, err := call(cmd.Context(), a, "Loading statistics", func(ctx context.Context) (*client.Stats, error) {
				return a.client.Stats(ctx)
			})
			if err != nil {
				return err
			}
			pterm.DefaultSection.Println("User statistics")
			_ = pterm.DefaultTable.WithData(pterm.TableData{
				{"Total users", strconv.FormatInt(s.TotalUsers, 10)},
				{"Admins", strconv.FormatInt(s.TotalAdmins, 10)},
				{"Regular users", strconv.FormatInt(s.TotalRegularUsers, 10)},
				{"New today", strconv.FormatInt(s.NewUsersToday, 10)},
			}).Render()
			return nil
		},
	}
}
