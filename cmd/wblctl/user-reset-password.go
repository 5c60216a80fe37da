package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildbranch/wbl-catalog/pkg/audit"
	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/db"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	gormstore "github.com/wildbranch/wbl-catalog/pkg/server/store/gorm"
)

// userResetPasswordCmd represents the user reset-password command
var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Replace a user's password",
	Long: `Replace the password of the user with the given email.

The new password is taken from --password or from the first line of stdin.
Tokens already issued to the user stay valid until they expire.

Example:
  echo "$NEW_PASSWORD" | wblctl user reset-password alice@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		email := args[0]
		passwordFlag, _ := cmd.Flags().GetString("password")

		plaintext, err := readPassword(passwordFlag, os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		err = resetPassword(
			gormstore.NewUsersStore(database),
			password.NewHasher(cfg.PasswordHashCost),
			email, plaintext,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset password for %s: %v\n", email, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Password for %s updated\n", email)
	},
}

func init() {
	userCmd.AddCommand(userResetPasswordCmd)
	userResetPasswordCmd.Flags().String("password", "", "new password (read from stdin when empty)")
}

func resetPassword(users store.UsersStore, hasher *password.Hasher, email, plaintext string) error {
	event := audit.PasswordEvent{Email: email, Operator: operatorName()}

	err := func() error {
		hash, err := hasher.Hash(plaintext)
		if err != nil {
			return err
		}
		return users.UpdatePasswordHash(email, hash)
	}()
	if err != nil {
		event.ErrorMessage = err.Error()
		audit.Log(event)
		return err
	}

	event.Success = true
	audit.Log(event)
	return nil
}

// operatorName is the local account running the command
func operatorName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "wblctl"
}
