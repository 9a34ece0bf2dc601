package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/catalogo-admin/internal/application/auth"
	"github.com/jhoicas/catalogo-admin/internal/application/session"
	"github.com/jhoicas/catalogo-admin/internal/application/usecase"
	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/catalog"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/filestore"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/memory"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/pdf"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/postgres"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/sqlite"
	"github.com/jhoicas/catalogo-admin/pkg/config"
	"github.com/jhoicas/catalogo-admin/pkg/format"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// application dependencias compartidas por la CLI y el servidor. Hay un único
// session.Store por proceso.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	repo     repository.TokenRepository
	store    *session.Store
	client   *catalog.Client
	authUC   *auth.AuthUseCase
	bookUC   *usecase.BookUseCase
	exportUC *usecase.ExportUseCase
	prices   *format.PriceFormatter
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// newApplication construye el grafo de dependencias. No inicializa la sesión:
// el shell (serve) o openSession (CLI) lo hacen una sola vez.
func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	repo, err := openTokenRepository(ctx, cfg.Session, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	searchParams, ok := catalog.SearchParamsFor(cfg.Catalog.SearchParams)
	if !ok {
		_ = repo.Close()
		return nil, fmt.Errorf("CATALOG_SEARCH_PARAMS desconocido: %q", cfg.Catalog.SearchParams)
	}

	store := session.NewStore(repo, cfg.Session.Key, log)
	client := catalog.New(cfg.Catalog.BaseURL, store, log,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithMetrics(m),
		catalog.WithSearchParams(searchParams),
	)
	prices := format.NewPriceFormatter(cfg.App.Locale)

	return &application{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		store:    store,
		client:   client,
		authUC:   auth.NewAuthUseCase(client, store),
		bookUC:   usecase.NewBookUseCase(client),
		exportUC: usecase.NewExportUseCase(client, pdf.NewMarotoCatalogGenerator(), prices, cfg.Catalog.BaseURL, m),
		prices:   prices,
		registry: reg,
		metrics:  m,
	}, nil
}

// Close libera el almacenamiento del token.
func (a *application) Close() error {
	return a.repo.Close()
}

// openTokenRepository elige el backend duradero según SESSION_BACKEND.
func openTokenRepository(ctx context.Context, cfg config.SessionConfig, log *logger.Logger) (repository.TokenRepository, error) {
	switch cfg.Backend {
	case config.SessionBackendFile:
		return filestore.New(cfg.Path, log), nil
	case config.SessionBackendSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("abrir sesión sqlite: %w", err)
		}
		return s, nil
	case config.SessionBackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("conectar a postgres: %w", err)
		}
		repo, err := postgres.NewTokenRepository(ctx, pool, "catalogo-admin")
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	case config.SessionBackendMemory:
		log.Warn().Msg("sesión en memoria: el token no sobrevive al proceso")
		return memory.NewTokenRepository(nil), nil
	default:
		return nil, fmt.Errorf("backend de sesión desconocido: %q", cfg.Backend)
	}
}
