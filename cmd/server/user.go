package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage reviewers",
	}

	var name, email string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a reviewer and print its actor id",
		Example: `  diffreview user add --name "Ana" --email ana@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			a, err := db.CreateUser(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Display name")
	add.Flags().StringVar(&email, "email", "", "Email address")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}
