//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"stuffmd/infrastructure/config"
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
