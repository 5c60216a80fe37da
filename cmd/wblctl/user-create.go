package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/db"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	gormstore "github.com/wildbranch/wbl-catalog/pkg/server/store/gorm"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create <username> <email>",
	Short: "Create an active user",
	Long: `Create an active user with the given username and email.

The password is taken from --password or, if that is not set, from the first
line of stdin. An email that is already registered is reported and left
untouched.

Example:
  wblctl user create admin admin@example.com --superuser
  echo "$PASSWORD" | wblctl user create alice alice@example.com`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		superuser, _ := cmd.Flags().GetBool("superuser")
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

		user, created, err := createUser(
			gormstore.NewUsersStore(database),
			password.NewHasher(cfg.PasswordHashCost),
			args[0], args[1], plaintext, superuser,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}
		if !created {
			fmt.Fprintf(os.Stderr, "User %s already exists (id %d), leaving it unchanged\n", user.Email, user.ID)
			return
		}
		fmt.Fprintf(os.Stderr, "Created user '%s'\n", user.Email)
		fmt.Println(user.ID)
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().Bool("superuser", false, "grant the user access to every record")
	userCreateCmd.Flags().String("password", "", "initial password (read from stdin when empty)")
}

// createUser inserts a new active user. If the email is already registered
// the existing user is returned with created set to false.
func createUser(
	users store.UsersStore,
	hasher *password.Hasher,
	username, email, plaintext string,
	superuser bool,
) (user *model.User, created bool, err error) {
	existing, err := users.FindUserByEmail(email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, store.ErrUserNotFound):
		return nil, false, err
	}

	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return nil, false, err
	}

	user = &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
	}
	if err := users.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// lost a race with another writer
			existing, findErr := users.FindUserByEmail(email)
			if findErr != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}
