package clients

import (
	"net/url"
	"time"

	pkgclients "github.com/carlosbarrancotena/practica5/pkg/clients"
	"github.com/carlosbarrancotena/practica5/pkg/clients/pokeapi"
	"github.com/carlosbarrancotena/practica5/pkg/config"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
)

// ServiceClients holds the upstream clients used by resolvers
type ServiceClients struct {
	PokeAPI *pokeapi.Client
}

// Config represents the configuration for all upstream clients
type Config struct {
	PokeAPIBaseURL string
	Timeout        time.Duration
	MaxRetries     int
	CircuitBreaker bool
	Logger         logging.Logger
	Observer       pokeapi.RequestObserver
}

// ConfigFromEnv reads the POKEAPI_* variables.
func ConfigFromEnv(logger logging.Logger) Config {
	return Config{
		PokeAPIBaseURL: config.GetEnv("POKEAPI_BASE_URL", pokeapi.DefaultBaseURL),
		Timeout:        config.GetEnvSeconds("POKEAPI_TIMEOUT_SECONDS", 0),
		MaxRetries:     config.GetEnvInt("POKEAPI_MAX_RETRIES", 0),
		CircuitBreaker: config.GetEnvBool("POKEAPI_CIRCUIT_BREAKER", false),
		Logger:         logger,
	}
}

// NewServiceClients creates and initializes all upstream clients
func NewServiceClients(cfg Config) (*ServiceClients, error) {
	if cfg.PokeAPIBaseURL == "" {
		cfg.PokeAPIBaseURL = pokeapi.DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.PokeAPIBaseURL); err != nil {
		return nil, err
	}

	opts := []pokeapi.Option{
		pokeapi.WithTimeout(cfg.Timeout),
		pokeapi.WithRequestObserver(cfg.Observer),
	}
	if cfg.MaxRetries > 0 || cfg.CircuitBreaker {
		opts = append(opts, pokeapi.WithHTTPExecutorConfig(pkgclients.HTTPExecutorConfig{
			MaxRetries:     cfg.MaxRetries,
			CircuitBreaker: cfg.CircuitBreaker,
			Name:           "pokeapi",
			Logger:         cfg.Logger,
		}))
	}

	if cfg.Logger != nil {
		cfg.Logger.WithFields(logging.Fields{
			"base_url":        cfg.PokeAPIBaseURL,
			"timeout":         cfg.Timeout.String(),
			"max_retries":     cfg.MaxRetries,
			"circuit_breaker": cfg.CircuitBreaker,
		}).Info("PokeAPI client configured")
	}

	return &ServiceClients{
		PokeAPI: pokeapi.NewClient(cfg.PokeAPIBaseURL, opts...),
	}, nil
}
