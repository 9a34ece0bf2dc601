// Package cmd comandos de la CLI de catalogo-admin.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-admin/pkg/config"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// rootOptions flags globales; tienen prioridad sobre env y archivo.
type rootOptions struct {
	configFile     string
	catalogURL     string
	sessionBackend string
	sessionPath    string
	logLevel       string
	logOut         io.Writer

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd construye el árbol de comandos.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "catalogo-admin",
		Short: "Consola de administración del catálogo de libros",
		Long: `catalogo-admin administra el catálogo de libros remoto.

Guarda el bearer token del catálogo en un almacenamiento duradero para que
la sesión sobreviva a los reinicios, y lo comparte entre la consola web
(serve) y los comandos de línea.

Inicio rápido:
  1. catalogo-admin login --username admin
  2. catalogo-admin books list
  3. catalogo-admin serve   (http://127.0.0.1:8080)

Configuración:
  Variables de entorno (CATALOG_BASE_URL, SESSION_BACKEND, SESSION_PATH,
  LOG_LEVEL...), archivo .env / config.env del directorio actual, o --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "archivo de configuración (default: ./.env o ./config.env)")
	pf.StringVar(&opts.catalogURL, "catalog-url", "", "base URL del catálogo (CATALOG_BASE_URL)")
	pf.StringVar(&opts.sessionBackend, "session-backend", "", "almacenamiento del token: file, sqlite, postgres, memory")
	pf.StringVar(&opts.sessionPath, "session-path", "", "ruta del archivo/base de la sesión")
	pf.StringVar(&opts.logLevel, "log-level", "", "nivel de log: trace, debug, info, warn, error")

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newBooksCmd(opts),
	)
	return root
}

// Execute ejecuta la CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.catalogURL != "" {
		cfg.Catalog.BaseURL = strings.TrimRight(o.catalogURL, "/")
	}
	if o.sessionBackend != "" {
		cfg.Session.Backend = strings.ToLower(o.sessionBackend)
		if o.sessionPath == "" && os.Getenv("SESSION_PATH") == "" {
			cfg.Session.Path = config.DefaultSessionPath(cfg.Session.Backend)
		}
	}
	if o.sessionPath != "" {
		cfg.Session.Path = o.sessionPath
	}
	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := o.logOut
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	o.cfg = cfg
	o.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Out: out})
	return nil
}
