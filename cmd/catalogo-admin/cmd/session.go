package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jhoicas/catalogo-admin/internal/application/guard"
	"github.com/jhoicas/catalogo-admin/internal/domain"
)

// errNotLoggedIn respuesta de la CLI cuando el guard redirige a /login.
var errNotLoggedIn = errors.New("sesión no iniciada: ejecute `catalogo-admin login`")

// openSession construye la aplicación e inicializa la sesión una sola vez.
func openSession(ctx context.Context, opts *rootOptions) (*application, error) {
	a, err := newApplication(ctx, opts.cfg, opts.log)
	if err != nil {
		return nil, err
	}
	if err := a.store.Initialize(ctx); err != nil {
		opts.log.Warn().Err(err).Msg("no se pudo restaurar la sesión")
	}
	return a, nil
}

// authorize aplica el mismo guard que la consola web a la ruta equivalente del comando.
func (a *application) authorize(ctx context.Context, path string) error {
	if expired, err := a.authUC.ExpireIfNeeded(ctx); err != nil {
		a.log.Warn().Err(err).Msg("no se pudo borrar el token expirado")
	} else if expired {
		return fmt.Errorf("token expirado: %w", errNotLoggedIn)
	}
	if d := guard.Decide(a.store.Authenticated(), path); d.Action == guard.Redirect {
		return errNotLoggedIn
	}
	return nil
}

// cliError traduce los errores de dominio a un mensaje de consola.
func cliError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUnauthorized):
		return fmt.Errorf("el catálogo rechazó el token; sesión cerrada: %w", errNotLoggedIn)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errors.New("credenciales inválidas")
	default:
		return err
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión en el catálogo y guarda el token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				u, err := prompt(cmd.ErrOrStderr(), in, "Username: ")
				if err != nil {
					return err
				}
				username = u
			}
			if password == "" {
				p, err := readPassword(cmd, in, passwordStdin)
				if err != nil {
					return err
				}
				password = p
			}

			ctx := cmd.Context()
			a, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.authUC.Login(ctx, username, password); err != nil {
				return cliError(err)
			}
			st := a.authUC.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada en %s", opts.cfg.Catalog.BaseURL)
			if !st.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), " (expira %s)", st.ExpiresAt.Local().Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "usuario")
	cmd.Flags().StringVarP(&password, "password", "p", "", "contraseña (si se omite se pide sin eco)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "leer la contraseña de stdin")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión y borra el token guardado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.authUC.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Muestra el estado de la sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			st := a.authUC.Status()
			fmt.Fprintf(out, "catálogo:  %s\n", opts.cfg.Catalog.BaseURL)
			fmt.Fprintf(out, "backend:   %s\n", opts.cfg.Session.Backend)
			if !st.Authenticated {
				fmt.Fprintln(out, "sesión:    no iniciada")
				return nil
			}
			state := "iniciada"
			if st.Expired {
				state = "expirada"
			}
			fmt.Fprintf(out, "sesión:    %s\n", state)
			if st.Username != "" {
				fmt.Fprintf(out, "usuario:   %s\n", st.Username)
			}
			if !st.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expira:    %s\n", st.ExpiresAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("leer entrada: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword lee sin eco si stdin es una terminal; si no, lee una línea.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("leer contraseña: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return prompt(cmd.ErrOrStderr(), in, "Password: ")
}
