package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"barrier-access-control/internal/storage"
)

var (
	userPassword string
	userAdmin    bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage operator accounts",
}

var addUserCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		username := args[0]

		if userPassword == "" {
			fmt.Fprintln(os.Stderr, "--password is required")
			os.Exit(1)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(userPassword), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
			os.Exit(1)
		}

		user := storage.User{
			Username: username,
			Password: string(hash),
			IsActive: true,
			IsAdmin:  userAdmin,
		}
		if err := provider.CreateUser(ctx, user); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user %s: %v\n", username, err)
			os.Exit(1)
		}
		fmt.Printf("Operator %s created\n", username)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(addUserCmd)
	addUserCmd.Flags().StringVar(&userPassword, "password", "", "password for the new operator")
	addUserCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant admin privileges")
}
