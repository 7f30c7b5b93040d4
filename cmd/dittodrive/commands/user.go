package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/marmos91/dittodrive/internal/cli/output"
	"github.com/marmos91/dittodrive/internal/cli/prompt"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Manage DittoDrive user accounts directly against the metadata database.

These commands operate on the configured database and do not require the
server to be running. Each user owns an isolated folder/file tree; deleting
a user does not remove their stored data.

Subcommands:
  create      Create a new user account
  list        List all user accounts
  activate    Enable a user account
  deactivate  Disable a user account
  passwd      Change a user's password
  delete      Delete a user account`,
}

var (
	userCreateEmail    string
	userCreateFullName string
	userCreatePassword string
	userCreateInactive bool

	userListOutput string

	userPasswdPassword string

	userDeleteForce bool
)

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new user account",
	Long: `Create a new user account in the metadata database.

The password is read from the --password flag when given, from an
interactive masked prompt when running in a terminal, or from stdin
when piped (for scripted use).

Examples:
  # Create a user with an interactive password prompt
  dittodrive user create alice

  # Create a user with email and full name
  dittodrive user create alice --email alice@example.com --full-name "Alice Smith"

  # Scripted creation (password on stdin)
  echo "$PASSWORD" | dittodrive user create alice`,
	Args: cobra.ExactArgs(1),
	RunE: runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user accounts",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <username>",
	Short: "Enable a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserSetActive(args[0], true)
	},
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <username>",
	Short: "Disable a user account",
	Long: `Disable a user account.

A disabled user cannot log in or obtain new tokens. Their stored data is
kept and becomes accessible again when the account is re-activated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserSetActive(args[0], false)
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPasswd,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account",
	Long: `Delete a user account from the metadata database.

The bootstrap admin account cannot be deleted; it would be recreated on
the next server start. Deleting a user does not remove their folders,
files, or blobs.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserDelete,
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userCreateFullName, "full-name", "", "Full name")
	userCreateCmd.Flags().StringVar(&userCreatePassword, "password", "", "Password (prompted if not given)")
	userCreateCmd.Flags().BoolVar(&userCreateInactive, "inactive", false, "Create the account disabled")

	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table|json|yaml)")

	userPasswdCmd.Flags().StringVar(&userPasswdPassword, "password", "", "New password (prompted if not given)")

	userDeleteCmd.Flags().BoolVar(&userDeleteForce, "force", false, "Skip confirmation prompt")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userActivateCmd)
	userCmd.AddCommand(userDeactivateCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userDeleteCmd)
}

// openStore loads the configuration and opens the metadata store.
// The caller is responsible for closing the returned store.
func openStore() (store.Store, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// readPassword obtains a password: from the flag value when set, from an
// interactive masked prompt when stdin is a terminal, otherwise from a
// single line on stdin (piped input).
func readPassword(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		if confirm {
			return prompt.NewPassword()
		}
		return prompt.Password("Password")
	}

	// Fall back to reading from stdin (for piped input)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(password), nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := readPassword(userCreatePassword, true)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     userCreateFullName,
		IsActive:     !userCreateInactive,
	}
	if userCreateEmail != "" {
		user.Email = &userCreateEmail
	}

	ctx := context.Background()
	id, err := st.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created (ID: %s)\n", username, id)
	return nil
}

// userRow is the display shape for a user account. The password hash never
// appears in any output format.
type userRow struct {
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	FullName  string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Active    bool   `json:"active" yaml:"active"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		row := userRow{
			Username:  u.Username,
			FullName:  u.FullName,
			Active:    u.IsActive,
			CreatedAt: u.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if u.Email != nil {
			row.Email = *u.Email
		}
		rows = append(rows, row)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, rows)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, rows)
	default:
		if len(rows) == 0 {
			fmt.Println("No users configured")
			return nil
		}
		table := output.NewTableData("USERNAME", "EMAIL", "FULL NAME", "ACTIVE", "CREATED")
		for _, row := range rows {
			email := row.Email
			if email == "" {
				email = "-"
			}
			fullName := row.FullName
			if fullName == "" {
				fullName = "-"
			}
			active := "yes"
			if !row.Active {
				active = "no"
			}
			table.AddRow(row.Username, email, fullName, active, row.CreatedAt)
		}
		return output.PrintTable(os.Stdout, table)
	}
}

func runUserSetActive(username string, active bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetUserActive(context.Background(), username, active); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if active {
		fmt.Printf("User %q activated\n", username)
	} else {
		fmt.Printf("User %q deactivated\n", username)
	}
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := readPassword(userPasswdPassword, true)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.UpdatePassword(context.Background(), username, passwordHash); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("Password updated for user %q\n", username)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	if username == models.AdminUsername {
		return fmt.Errorf("the %q account cannot be deleted (it is recreated on server start)", models.AdminUsername)
	}

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete user %q", username), userDeleteForce)
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

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.DeleteUser(context.Background(), username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User %q deleted\n", username)
	return nil
}
