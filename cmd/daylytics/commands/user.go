package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daylytics/daylytics/internal/bytesize"
	"github.com/daylytics/daylytics/internal/cli/output"
	"github.com/daylytics/daylytics/internal/cli/prompt"
	"github.com/daylytics/daylytics/pkg/config"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/store"
)

var (
	userListOutput  string
	userAddName     string
	userAddLimit    string
	userDeleteForce bool
	userCmdTimeout  = 10 * time.Second
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Manage daylytics user accounts directly against the database.

These commands operate on the local database configured in the config
file, without going through the API. The server does not need to be
running.

Examples:
  daylytics user add alice@example.com
  daylytics user list
  daylytics user passwd alice@example.com
  daylytics user delete alice@example.com`,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	RunE:    runUserList,
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add a new user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <email>",
	Aliases: []string{"remove"},
	Short:   "Delete a user and all their data",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserDelete,
}

var userPasswdCmd = &cobra.Command{
	Use:     "passwd <email>",
	Aliases: []string{"password"},
	Short:   "Change a user's password",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserPasswd,
}

func init() {
	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table|json|yaml)")
	userAddCmd.Flags().StringVar(&userAddName, "name", "", "Display name (prompted if not set)")
	userAddCmd.Flags().StringVar(&userAddLimit, "limit", "", "Storage limit, e.g. 100Mi (default from config)")
	userDeleteCmd.Flags().BoolVar(&userDeleteForce, "force", false, "Skip confirmation prompt")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userPasswdCmd)
}

// openStore loads the configuration and opens the database for direct access.
func openStore() (*store.GORMStore, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return st, cfg, nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), userCmdTimeout)
	defer cancel()

	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, users)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, users)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	table := output.NewTableData("EMAIL", "NAME", "STORAGE USED", "LIMIT", "CREATED")
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = "-"
		}
		table.AddRow(
			u.Email,
			name,
			bytesize.ByteSize(u.StorageUsed).String(),
			bytesize.ByteSize(u.StorageLimit).String(),
			u.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	return output.PrintTable(os.Stdout, table)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	email := args[0]

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), userCmdTimeout)
	defer cancel()

	if _, err := st.GetUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("user %q already exists", email)
	}

	name := userAddName
	if name == "" {
		name, err = prompt.Input("Display name", "")
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
	}

	password, err := prompt.NewPassword()
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	limit := cfg.API.DefaultUserStorageLimit.Int64()
	if userAddLimit != "" {
		parsed, err := bytesize.Parse(userAddLimit)
		if err != nil {
			return fmt.Errorf("invalid --limit: %w", err)
		}
		limit = parsed.Int64()
	}
	if limit <= 0 {
		limit = models.DefaultStorageLimit
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		StorageLimit: limit,
	}
	if err := user.Validate(); err != nil {
		return err
	}

	if _, err := st.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✓ User %q created (storage limit: %s)\n", email, bytesize.ByteSize(limit))
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	email := args[0]

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), userCmdTimeout)
	defer cancel()

	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user %q not found", email)
	}

	if !userDeleteForce {
		confirmed, err := prompt.Confirm(fmt.Sprintf("Delete user %q and all their data", email), false)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
		if !confirmed {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := st.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("✓ User %q deleted\n", email)
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	email := args[0]

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), userCmdTimeout)
	defer cancel()

	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user %q not found", email)
	}

	password, err := prompt.NewPassword()
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := st.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("✓ Password changed for user %q\n", email)
	return nil
}
