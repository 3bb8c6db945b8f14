package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/playeraccounts/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Account lookup and role commands",
	}

	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerRoleCmd())

	return cmd
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid|username>",
		Short: "Look an account up by UUID or username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Get("/api/v1/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <uuid> <role>",
		Short: "Change an account's role",
		Long:  "Change an account's role.\n\nRoles are " + model.RoleNames() + ", in any case.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"role": args[1]}
			var result Account

			if err := client.Put("/api/v1/players/"+url.PathEscape(args[0])+"/role", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
