package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/service"
)

// userOutput is what user create prints.
type userOutput struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		apiKey string
		login  bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user",
		Long: `Create a user with a hashed password and an upstream provider key.
The password is prompted for on a terminal and read from the first line
of stdin otherwise. With --login a token pair is printed as well; this
needs JWT_SECRET_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tokens *auth.TokenIssuer
			if login {
				issuer, err := issuerFromEnv()
				if err != nil {
					return err
				}
				tokens = issuer
			}

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel, repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer repo.Close()

			if err := repo.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			users := service.NewUserService(repo, nil, nil, tokens, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

			user, err := users.Register(ctx, service.RegisterInput{
				Name:     args[0],
				Password: password,
				APIKey:   apiKey,
			})
			if err != nil {
				if errors.Is(err, service.ErrUserNameTaken) {
					return fmt.Errorf("user %q already exists", args[0])
				}
				return fmt.Errorf("create user: %w", err)
			}

			out := userOutput{UserID: user.ID, Name: user.Name}
			if login {
				pair, err := users.Login(ctx, user.Name, password)
				if err != nil {
					return fmt.Errorf("issue tokens: %w", err)
				}
				out.AccessToken = pair.AccessToken
				out.RefreshToken = pair.RefreshToken
				out.TokenType = pair.TokenType
			}

			return writeUserOutput(cmd.OutOrStdout(), opts.output, out)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("WEBAGENT_API_KEY"), "Upstream provider API key (defaults to $WEBAGENT_API_KEY)")
	cmd.Flags().BoolVar(&login, "login", false, "Also print a token pair")

	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads the
// first line of in.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required on stdin")
	}
	return password, nil
}

func writeUserOutput(w io.Writer, format string, out userOutput) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	_, _ = fmt.Fprintln(w, out.UserID)
	if out.AccessToken != "" {
		_, _ = fmt.Fprintln(w, out.AccessToken)
		_, _ = fmt.Fprintln(w, out.RefreshToken)
	}
	return nil
}
