package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/models"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal login accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a login account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		role, err := models.ParseRole(mustString(cmd, "role"))
		if err != nil {
			return err
		}
		db, err := connectDB(cfg.Database, log)
		if err != nil {
			return err
		}

		user, err := auth.NewStore(db).CreateUser(cmd.Context(), auth.NewUser{
			Username:    mustString(cmd, "username"),
			Email:       mustString(cmd, "email"),
			Password:    mustString(cmd, "password"),
			DisplayName: mustString(cmd, "name"),
			Role:        role,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with id %s\n", user.Username, user.Role.Label(), user.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List login accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		db, err := connectDB(cfg.Database, log)
		if err != nil {
			return err
		}
		users, err := auth.NewStore(db).ListUsers(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tROLE\tEMAIL\tACTIVE\tLAST LOGIN")
		for _, u := range users {
			last := "-"
			if u.LastLoginAt != nil {
				last = u.LastLoginAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.Username, u.Role, u.Email, u.IsActive, last)
		}
		return w.Flush()
	},
}

func init() {
	userCreateCmd.Flags().String("username", "", "login name")
	userCreateCmd.Flags().String("password", "", "password, at least 8 characters")
	userCreateCmd.Flags().String("email", "", "email address")
	userCreateCmd.Flags().String("name", "", "display name")
	userCreateCmd.Flags().String("role", string(models.RoleUser), "ADMIN, MINE_ADMIN or USER")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userListCmd)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
