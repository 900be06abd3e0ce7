package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfapp/shelf/internal/cli/shell"
	"github.com/shelfapp/shelf/internal/domain"
	"github.com/shelfapp/shelf/internal/service"
)

const (
	keyUsername = "username"
	keyEmail    = "email"
	keyPassword = "password"

	keySeedUsername = "seed-username"
	keySeedEmail    = "seed-email"
	keySeedPassword = "seed-password"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open the interactive library menu",
		Long: `Shell opens the interactive menu. Console logging defaults to warnings
so records do not interleave with the prompts; pass --log-file to keep an
activity log of every login and change.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationInteractive: ""},
		RunE: a.withApp(func(cmd *cobra.Command, _ []string) error {
			sh := shell.New(a.services.Auth, a.services.Books, a.services.Transfer, shell.Options{
				In:           a.in,
				Out:          a.out,
				Logger:       a.services.Logger,
				ReadPassword: passwordReader(a.in),
			})
			return sh.Run(cmd.Context())
		}),
	}
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(keyUsername, "u", "", "account username (prompted when empty)")
	cmd.Flags().String(keyPassword, "", "account password, or SHELF_PASSWORD (prompted when empty)")
}

// credentials returns the username and password from flags, the environment
// or the terminal, in that order.
func (a *app) credentials(r *lineReader) (username, password string, err error) {
	if username, err = r.valueOr(a.viper.GetString(keyUsername), "Username: ", false); err != nil {
		return "", "", err
	}
	if password, err = r.valueOr(a.viper.GetString(keyPassword), "Password: ", true); err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (a *app) login(ctx context.Context) (*domain.User, error) {
	username, password, err := a.credentials(newLineReader(a.in, a.out))
	if err != nil {
		return nil, err
	}
	return a.services.Auth.Authenticate(ctx, service.LoginRequest{Username: username, Password: password})
}

func newRegisterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: a.withApp(func(cmd *cobra.Command, _ []string) error {
			r := newLineReader(a.in, a.out)
			username, password, err := a.credentials(r)
			if err != nil {
				return err
			}
			email, err := r.valueOr(a.viper.GetString(keyEmail), "Email: ", false)
			if err != nil {
				return err
			}

			user, err := a.services.Auth.Register(cmd.Context(), service.RegisterRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account %s created (id %d).\n", user.Username, user.ID)
			return nil
		}),
	}
	addCredentialFlags(cmd)
	cmd.Flags().String(keyEmail, "", "account email (prompted when empty)")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add every book in a CSV file to your library",
		Long: `Import reads a CSV file with the header id,title,author,year,genre,read,note.
The id column is ignored. Either every row is added or, if any row is invalid,
none are.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			user, err := a.login(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.services.Transfer.Import(cmd.Context(), user.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported %d book(s) from %s in %s.\n", result.Books, result.Path, result.Duration.Round(time.Millisecond))
			return nil
		}),
	}
	addCredentialFlags(cmd)
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write your library to a CSV file named after your username",
		Args:  cobra.NoArgs,
		RunE: a.withApp(func(cmd *cobra.Command, _ []string) error {
			user, err := a.login(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.services.Transfer.Export(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d book(s) to %s (sha256 %s).\n", result.Books, result.Path, result.Checksum)
			return nil
		}),
	}
	addCredentialFlags(cmd)
	return cmd
}

func newSeedCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Create an account and import a CSV file into it in one step",
		Long: `Seed registers a new account and imports the given CSV file into it as a
single transaction: if the account cannot be created or any row is invalid,
nothing is written.

Credentials come from the flags or SHELF_SEED_USERNAME, SHELF_SEED_EMAIL and
SHELF_SEED_PASSWORD.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			for key, flag := range map[string]string{
				keySeedUsername: keyUsername,
				keySeedEmail:    keyEmail,
				keySeedPassword: keyPassword,
			} {
				if err := a.viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}

			books, err := a.services.Importer.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := newLineReader(a.in, a.out)
			req := service.RegisterRequest{}
			if req.Username, err = r.valueOr(a.viper.GetString(keySeedUsername), "Username: ", false); err != nil {
				return err
			}
			if req.Email, err = r.valueOr(a.viper.GetString(keySeedEmail), "Email: ", false); err != nil {
				return err
			}
			if req.Password, err = r.valueOr(a.viper.GetString(keySeedPassword), "Password: ", true); err != nil {
				return err
			}

			user, n, err := a.services.Auth.RegisterWithBooks(cmd.Context(), req, books)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account %s created with %d book(s).\n", user.Username, n)
			return nil
		}),
	}
	cmd.Flags().StringP(keyUsername, "u", "", "account username")
	cmd.Flags().String(keyEmail, "", "account email")
	cmd.Flags().String(keyPassword, "", "account password")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the shelf version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shelf %s\n", Version)
		},
	}
}
