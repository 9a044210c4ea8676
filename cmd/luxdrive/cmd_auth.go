package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"luxdrive/pkg/client"
)

var authEmail, authPassword string

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, true)
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in to an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, false)
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession()
		if err != nil {
			return err
		}
		if err := session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession()
		if err != nil {
			return err
		}
		if u := session.User(); u != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", u.Email, u.ID)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signUpCmd, signInCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
}

func authenticate(cmd *cobra.Command, create bool) error {
	if authEmail == "" || authPassword == "" {
		return errors.New("email and password are required")
	}
	_, session, err := openSession()
	if err != nil {
		return err
	}

	var result client.AuthResult
	if create {
		result = session.SignUp(cmd.Context(), authEmail, authPassword)
	} else {
		result = session.SignIn(cmd.Context(), authEmail, authPassword)
	}
	if result.Error != nil {
		return result.Error
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", session.User().Email)
	return nil
}
