package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/travellistings/internal/handler"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, log in and manage the saved token",
	}
	cmd.AddCommand(registerCmd(), loginCmd(), logoutCmd())
	return cmd
}

func registerCmd() *cobra.Command {
	var req handler.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and save its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res handler.AuthResponse
			raw, err := client().do(http.MethodPost, "/auth/register", req, &res)
			if err != nil {
				return err
			}
			if err := saveToken(res.Token); err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ registered %s (%s)\n", res.User.Username, res.User.ID)
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Username, "username", "", "username")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	markRequired(cmd, "email", "username", "password")
	return cmd
}

func loginCmd() *cobra.Command {
	var req handler.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res handler.AuthResponse
			raw, err := client().do(http.MethodPost, "/auth/login", req, &res)
			if err != nil {
				return err
			}
			if err := saveToken(res.Token); err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ logged in as %s\n", res.User.Email)
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	markRequired(cmd, "email", "password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ logged out")
			return nil
		},
	}
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}

// printResult writes the raw JSON with --json, otherwise calls human
func printResult(cmd *cobra.Command, raw []byte, human func()) error {
	if jsonOutput {
		_, err := cmd.OutOrStdout().Write(raw)
		return err
	}
	human()
	return nil
}
