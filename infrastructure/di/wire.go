//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"tangent-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMemoryStore,
	ProvideBoardRepository,
	ProvideNodeRepository,
	ProvideLinkRepository,
	ProvideMessageRepository,
	ProvideQuoteRepository,
	ProvideUnitOfWorkFactory,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideNodeService,
	ProvideBoardService,
	ProvideLinkService,
	ProvideBranchService,
	ProvideChatService,
	ProvideBoardHandler,
	ProvideNodeHandler,
	ProvideLinkHandler,
	ProvideBranchHandler,
	ProvideChatHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
