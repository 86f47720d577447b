package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/auth"
)

func initCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config and create the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := os.Stat(a.configPath); err == nil && !force {
				fmt.Fprintf(out, "  config exists: %s (use --force to overwrite)\n", a.configPath)
			} else {
				if err := SaveConfig(a.configPath, a.cfg); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(out, "  config:  %s\n", a.configPath)
			}
			e, err := a.openEngine()
			if err != nil {
				return fmt.Errorf("open workspace: %w", err)
			}
			defer e.Close()
			fmt.Fprintf(out, "  storage: %s\n", e.BaseDir())
			fmt.Fprintf(out, "  api:     %s\n\n", e.APIURL())
			fmt.Fprintf(out, "  Next: barlyq login\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an administrator account",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			src := cmd.InOrStdin()
			in := bufio.NewReader(src)
			out := cmd.OutOrStdout()
			if email == "" {
				fmt.Fprint(out, "  Email: ")
				email = readLine(in)
			}
			if password == "" {
				fmt.Fprint(out, "  Password: ")
				password = readPassword(src, in)
				fmt.Fprintln(out)
			}

			ctx := cmd.Context()
			tokens, err := s.api.Auth.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			claims, err := auth.CheckAdmin(tokens.Access, time.Now())
			if err != nil {
				_ = s.api.Auth.Logout(ctx)
				if errors.Is(err, auth.ErrNotAdmin) {
					return fmt.Errorf("%s is not an administrator", email)
				}
				return fmt.Errorf("login: %w", err)
			}
			if _, err := s.engine.Audit().Append(claims.Subject(), audit.ActionLogin, "", nil); err != nil {
				a.log.Warn("audit append failed", zap.Error(err))
			}
			success(out, "Signed in as %s", claims.Subject())
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword reads without echo on a terminal and falls back to a plain
// line when input is piped.
func readPassword(src io.Reader, r *bufio.Reader) string {
	if f, ok := src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(b)
		}
	}
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			ctx := cmd.Context()
			actor := s.actor(ctx)
			if err := s.api.Auth.Logout(ctx); err != nil {
				return err
			}
			if _, err := s.engine.Audit().Append(actor, audit.ActionLogout, "", nil); err != nil {
				a.log.Warn("audit append failed", zap.Error(err))
			}
			success(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
}

func whoamiCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in administrator",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			ctx := cmd.Context()
			tokens, err := s.engine.Tokens().Load(ctx, auth.CLISession)
			if err != nil {
				return err
			}
			if refresh || (tokens.Access == "" && tokens.Refresh != "") {
				if _, err := s.api.Auth.Refresh(ctx); err != nil {
					return err
				}
			}
			claims, err := s.engine.Claims(ctx, auth.CLISession)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), claims)
			}
			expires := "never"
			if !claims.ExpiresAt.IsZero() {
				expires = fmt.Sprintf("%s (%s)", claims.ExpiresAt.Local().Format("2006-01-02 15:04"), humanize.Time(claims.ExpiresAt))
			}
			printFields(cmd.OutOrStdout(), [][2]string{
				{"subject", claims.Subject()},
				{"user id", fmt.Sprint(claims.UserID)},
				{"role", claims.Role},
				{"admin", fmt.Sprint(claims.IsAdmin())},
				{"expires", expires},
				{"api", s.engine.APIURL()},
			})
			return nil
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "force a token refresh first")
	return cmd
}
