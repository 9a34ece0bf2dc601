package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de persistencia del token soportados.
const (
	SessionBackendFile     = "file"
	SessionBackendSQLite   = "sqlite"
	SessionBackendPostgres = "postgres"
	SessionBackendMemory   = "memory"
)

// DefaultSessionKey clave fija bajo la que se guarda el bearer token.
const DefaultSessionKey = "token"

// Config agrupa la configuración de la consola (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Catalog CatalogConfig
	Session SessionConfig
	Log     LogConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env    string `validate:"required,oneof=development staging production test"`
	Name   string `validate:"required"`
	Locale string `validate:"required"` // etiqueta BCP 47 para formatear precios (en, es, es-CO...)
}

// HTTPConfig configuración del servidor de la consola.
type HTTPConfig struct {
	Host string
	Port int `validate:"min=1,max=65535"`
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig servicio remoto de catálogo. BaseURL es el único punto de verdad
// para el host (antes repartido entre localhost y el host desplegado).
type CatalogConfig struct {
	BaseURL      string        `validate:"required,url"`
	Timeout      time.Duration `validate:"positive_duration"`
	SearchParams string        `validate:"oneof=english spanish"` // nombres de los filtros de búsqueda
}

// SessionConfig persistencia duradera del token.
type SessionConfig struct {
	Backend     string `validate:"required,oneof=file sqlite postgres memory"`
	Path        string `validate:"required_if=Backend file,required_if=Backend sqlite"`
	DatabaseURL string `validate:"required_if=Backend postgres"`
	Key         string `validate:"required"`
}

// LogConfig nivel del logger.
type LogConfig struct {
	Level string `validate:"oneof=trace debug info warn error"`
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Si configFile no está vacío se usa ese archivo; si no, se buscan .env y config.env.
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, CATALOG_BASE_URL, SESSION_BACKEND, etc.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("leer archivo de configuración %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(".env")
		v.SetConfigType("env")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // ignoramos error si no existe

		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	backend := strings.ToLower(getString(v, "SESSION_BACKEND", SessionBackendFile))

	cfg := &Config{
		App: AppConfig{
			Env:    getString(v, "APP_ENV", "development"),
			Name:   getString(v, "APP_NAME", "catalogo-admin"),
			Locale: getString(v, "APP_LOCALE", "en"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "127.0.0.1"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Catalog: CatalogConfig{
			BaseURL:      strings.TrimRight(getString(v, "CATALOG_BASE_URL", "http://localhost:3003"), "/"),
			Timeout:      time.Duration(getInt(v, "CATALOG_TIMEOUT_SECONDS", 10)) * time.Second,
			SearchParams: strings.ToLower(getString(v, "CATALOG_SEARCH_PARAMS", "english")),
		},
		Session: SessionConfig{
			Backend:     backend,
			Path:        getString(v, "SESSION_PATH", DefaultSessionPath(backend)),
			DatabaseURL: getString(v, "SESSION_DATABASE_URL", ""),
			Key:         getString(v, "SESSION_KEY", DefaultSessionKey),
		},
		Log: LogConfig{
			Level: strings.ToLower(getString(v, "LOG_LEVEL", "info")),
		},
	}

	return cfg, nil
}

// DefaultSessionPath ubica el almacenamiento del token en ~/.catalogo-admin.
func DefaultSessionPath(backend string) string {
	name := "session.json"
	if backend == SessionBackendSQLite {
		name = "session.db"
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return name
	}
	return filepath.Join(home, ".catalogo-admin", name)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
