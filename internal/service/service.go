// Package service provides the application service that integrates all components.
package service

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/mch-analysis/internal/formatter"
	"github.com/mch-analysis/internal/parser"
	"github.com/mch-analysis/internal/parser/profiler"
	"github.com/mch-analysis/internal/repository"
	"github.com/mch-analysis/internal/storage"
	"github.com/mch-analysis/pkg/config"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/utils"
)

// Component names an optional backend that Initialize can bring up.
type Component string

const (
	// ComponentStorage is the artifact store (local or COS).
	ComponentStorage Component = "storage"
	// ComponentHistory is the profile history database.
	ComponentHistory Component = "history"
)

// Service is the main application service.
type Service struct {
	config     *config.Config
	logger     utils.Logger
	clock      clock.Clock
	parsers    *parser.Registry
	formatters *formatter.Registry
	overrides  map[string]parser.Parser

	storage  storage.Storage
	profiles repository.ProfileRepository
	repos    *repository.Repositories
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger utils.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for run timestamps and object keys.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithStorage sets the artifact store instead of building one from config.
func WithStorage(st storage.Storage) Option {
	return func(s *Service) { s.storage = st }
}

// WithProfileRepository sets the history repository instead of opening a database.
func WithProfileRepository(repo repository.ProfileRepository) Option {
	return func(s *Service) { s.profiles = repo }
}

// WithParser registers p under a parser registry name ("mc-profile" or a
// layout name), replacing the built-in parser for it.
func WithParser(name string, p parser.Parser) Option {
	return func(s *Service) {
		if s.overrides == nil {
			s.overrides = make(map[string]parser.Parser)
		}
		s.overrides[name] = p
	}
}

// New creates a new Service. Backends are not opened until Initialize.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid configuration", err)
	}

	s := &Service{
		config:     cfg,
		logger:     &utils.NullLogger{},
		clock:      clock.New(),
		parsers:    parser.NewRegistry(),
		formatters: formatter.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	profiler.RegisterWithRegistry(s.parsers, profiler.WithMaxInputBytesOption(cfg.Profiler.MaxInputBytes))
	for name, p := range s.overrides {
		s.parsers.Register(name, p)
	}
	s.formatters.Register(&formatter.ProfileFormatter{TopN: cfg.Profiler.TopN})

	return s, nil
}

// Initialize opens the requested backends. Backends injected through options
// are left as they are.
func (s *Service) Initialize(ctx context.Context, components ...Component) error {
	for _, c := range components {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c {
		case ComponentStorage:
			if err := s.initStorage(); err != nil {
				return apperrors.Wrap(apperrors.CodeStorageError, "failed to initialize storage", err)
			}
		case ComponentHistory:
			if err := s.initHistory(ctx); err != nil {
				return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to initialize history database", err)
			}
		default:
			return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("unknown component %q", c))
		}
	}
	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	if s.storage != nil {
		return nil
	}
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}
	s.storage = store
	return nil
}

// initHistory connects to the history database and migrates its schema.
func (s *Service) initHistory(ctx context.Context) error {
	if s.profiles != nil {
		return nil
	}
	s.logger.Info("Connecting to history database (%s)...", s.config.Database.Type)

	db, err := repository.NewGormDB(&s.config.Database, repository.Options{Tracing: s.config.Telemetry.Enabled})
	if err != nil {
		return err
	}
	repos := repository.NewRepositories(db)
	if err := repos.Migrate(ctx); err != nil {
		repos.Close()
		return err
	}

	s.repos = repos
	s.profiles = repos.Profiles
	s.logger.Info("History database ready")
	return nil
}

// Close releases the backends opened by Initialize.
func (s *Service) Close() error {
	if s.repos == nil {
		return nil
	}
	err := s.repos.Close()
	s.repos = nil
	s.profiles = nil
	return err
}

// HealthCheck checks the opened backends.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.repos != nil {
		if err := s.repos.HealthCheck(ctx); err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "database health check failed", err)
		}
	}
	return nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Formatters returns the formatter registry.
func (s *Service) Formatters() *formatter.Registry {
	return s.formatters
}

// Storage returns the artifact store, or nil when it is not initialized.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

func (s *Service) requireStorage() error {
	if s.storage == nil {
		return apperrors.New(apperrors.CodeStorageError, "storage is not initialized")
	}
	return nil
}

func (s *Service) requireHistory() error {
	if s.profiles == nil {
		return apperrors.New(apperrors.CodeDatabaseError, "history database is not initialized")
	}
	return nil
}
