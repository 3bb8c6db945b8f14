package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Player session commands",
	}

	cmd.AddCommand(newSessionLoginCmd())
	cmd.AddCommand(newSessionLogoutCmd())
	cmd.AddCommand(newSessionListCmd())

	return cmd
}

func newSessionLoginCmd() *cobra.Command {
	var id, name, address string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session for a player, creating the account if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" || name == "" {
				return fmt.Errorf("--uuid and --name are required")
			}

			req := map[string]string{
				"uuid":    id,
				"name":    name,
				"address": address,
			}
			var result Account

			if err := client.Post("/api/v1/sessions", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "uuid", "", "Player UUID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().StringVar(&address, "address", "", "Connecting address")
	_ = cmd.MarkFlagRequired("uuid")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSessionLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <uuid>",
		Short: "Close a player's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/sessions/" + url.PathEscape(args[0])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out " + args[0])
			return nil
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List online players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Sessions

			if err := client.Get("/api/v1/sessions", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
