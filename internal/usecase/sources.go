package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// SourceService manages the configured content origins.
type SourceService struct {
	sources ports.SourceStore
	logger  *slog.Logger
}

// NewSourceService constructs the source management service.
func NewSourceService(sources ports.SourceStore, logger *slog.Logger) *SourceService {
	return &SourceService{sources: sources, logger: logger}
}

// CreateSource validates and registers a new source.
func (s *SourceService) CreateSource(ctx context.Context, name string, sourceType domain.SourceType, config domain.SourceConfig, active bool) (*domain.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("source name is required")
	}
	if err := config.Validate(sourceType); err != nil {
		return nil, err
	}

	src := &domain.Source{
		Name:   name,
		Type:   sourceType,
		Config: config,
		Active: active,
	}
	if err := s.sources.CreateSource(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("source created", "id", src.ID, "name", src.Name, "type", src.Type)
	}
	return src, nil
}

// ListSources returns every configured source.
func (s *SourceService) ListSources(ctx context.Context) ([]domain.Source, error) {
	sources, err := s.sources.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if sources == nil {
		sources = []domain.Source{}
	}
	return sources, nil
}

// DeleteSource removes a source. Articles already collected from it remain.
func (s *SourceService) DeleteSource(ctx context.Context, id string) error {
	if err := s.sources.DeleteSource(ctx, id); err != nil {
		return fmt.Errorf("delete source %s: %w", id, err)
	}
	return nil
}
