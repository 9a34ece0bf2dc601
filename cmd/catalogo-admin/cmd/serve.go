package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apphttp "github.com/jhoicas/catalogo-admin/internal/interfaces/http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia la consola web",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if host != "" {
				cfg.HTTP.Host = host
			}
			if port != 0 {
				cfg.HTTP.Port = port
			}
			log := opts.log

			ctx := cmd.Context()
			a, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error().Err(err).Msg("cerrar almacenamiento de sesión")
				}
			}()

			shell := apphttp.NewShell(a.store, a.authUC, a.metrics, log)
			// Un fallo de almacenamiento no impide arrancar: la consola pide login.
			_ = shell.Start(ctx)
			defer shell.Close()

			app, err := apphttp.NewApp(apphttp.RouterDeps{
				Shell:      shell,
				AuthUC:     a.authUC,
				BookUC:     a.bookUC,
				ExportUC:   a.exportUC,
				Prices:     a.prices,
				Gatherer:   a.registry,
				AppName:    cfg.App.Name,
				CatalogURL: cfg.Catalog.BaseURL,
				Log:        log,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", cfg.HTTP.Addr()).
					Str("catalog", cfg.Catalog.BaseURL).
					Str("session_backend", cfg.Session.Backend).
					Bool("authenticated", shell.Authenticated()).
					Msg("consola escuchando")
				errCh <- app.Listen(cfg.HTTP.Addr())
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					log.Error().Err(err).Msg("servidor HTTP finalizado")
				}
				return err
			case <-quit:
				log.Info().Msg("señal de apagado recibida, cerrando servidor...")
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("apagado del servidor")
			}
			log.Info().Msg("consola detenida")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "host de escucha (HTTP_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "puerto de escucha (HTTP_PORT)")
	return cmd
}
