package di

import (
	"context"
	"fmt"
	"net/http"

	"tangent-backend/application/ports"
	"tangent-backend/application/services"
	"tangent-backend/infrastructure/config"
	"tangent-backend/infrastructure/messaging/eventbridge"
	"tangent-backend/infrastructure/messaging/local"
	"tangent-backend/infrastructure/persistence/dynamodb"
	"tangent-backend/infrastructure/persistence/memory"
	"tangent-backend/interfaces/http/rest"
	"tangent-backend/interfaces/http/rest/handlers"
	"tangent-backend/pkg/auth"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMemoryStore creates the shared in-memory store. It is only
// consulted when USE_MEMORY_STORE is set; the repository providers
// branch on the configuration.
func ProvideMemoryStore() *memory.Store {
	return memory.NewStore()
}

// ProvideBoardRepository creates a board repository
func ProvideBoardRepository(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.BoardRepository {
	if cfg.UseMemoryStore {
		return memory.NewBoardRepository(store)
	}
	return dynamodb.NewBoardRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideNodeRepository creates a node repository
func ProvideNodeRepository(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.NodeRepository {
	if cfg.UseMemoryStore {
		return memory.NewNodeRepository(store)
	}
	return dynamodb.NewNodeRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideLinkRepository creates a context-link repository
func ProvideLinkRepository(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.LinkRepository {
	if cfg.UseMemoryStore {
		return memory.NewLinkRepository(store)
	}
	return dynamodb.NewLinkRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideMessageRepository creates a message repository
func ProvideMessageRepository(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.MessageRepository {
	if cfg.UseMemoryStore {
		return memory.NewMessageRepository(store)
	}
	return dynamodb.NewMessageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideQuoteRepository creates a quote-link repository
func ProvideQuoteRepository(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.QuoteRepository {
	if cfg.UseMemoryStore {
		return memory.NewQuoteRepository(store)
	}
	return dynamodb.NewQuoteRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideUnitOfWorkFactory creates the transaction factory
func ProvideUnitOfWorkFactory(cfg *config.Config, client *awsdynamodb.Client, store *memory.Store, logger *zap.Logger) ports.UnitOfWorkFactory {
	if cfg.UseMemoryStore {
		return memory.NewUnitOfWorkFactory(store)
	}
	return dynamodb.NewUnitOfWorkFactory(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates an event publisher. Local environments
// log events instead of pushing them to EventBridge.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.UseMemoryStore || cfg.Environment == "local" {
		return local.NewPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates metrics instance. Returns nil when metrics are
// disabled; the Metrics methods tolerate a nil receiver.
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("Tangent/%s", cfg.Environment)
	return observability.NewMetrics(client, namespace, logger)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the HTTP error translator
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.Environment != "production")
}

// ProvideNodeService creates the node service
func ProvideNodeService(
	nodeRepo ports.NodeRepository,
	linkRepo ports.LinkRepository,
	messageRepo ports.MessageRepository,
	quoteRepo ports.QuoteRepository,
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.NodeService {
	return services.NewNodeService(nodeRepo, linkRepo, messageRepo, quoteRepo, uowFactory, publisher, metrics, logger)
}

// ProvideBoardService creates the board service
func ProvideBoardService(
	boardRepo ports.BoardRepository,
	nodeRepo ports.NodeRepository,
	nodeService *services.NodeService,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.BoardService {
	return services.NewBoardService(boardRepo, nodeRepo, nodeService, publisher, logger)
}

// ProvideLinkService creates the context-link service
func ProvideLinkService(
	nodeRepo ports.NodeRepository,
	linkRepo ports.LinkRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.LinkService {
	return services.NewLinkService(nodeRepo, linkRepo, publisher, metrics, logger)
}

// ProvideBranchService creates the branch service
func ProvideBranchService(
	nodeRepo ports.NodeRepository,
	messageRepo ports.MessageRepository,
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.BranchService {
	return services.NewBranchService(nodeRepo, messageRepo, uowFactory, publisher, metrics, logger)
}

// ProvideChatService creates the chat service
func ProvideChatService(
	nodeRepo ports.NodeRepository,
	messageRepo ports.MessageRepository,
	quoteRepo ports.QuoteRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.ChatService {
	return services.NewChatService(nodeRepo, messageRepo, quoteRepo, publisher, logger)
}

// ProvideBoardHandler creates the board HTTP handler
func ProvideBoardHandler(boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.BoardHandler {
	return handlers.NewBoardHandler(boardService, errorHandler, logger)
}

// ProvideNodeHandler creates the node HTTP handler
func ProvideNodeHandler(nodeService *services.NodeService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.NodeHandler {
	return handlers.NewNodeHandler(nodeService, boardService, errorHandler, logger)
}

// ProvideLinkHandler creates the link HTTP handler
func ProvideLinkHandler(linkService *services.LinkService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.LinkHandler {
	return handlers.NewLinkHandler(linkService, boardService, errorHandler, logger)
}

// ProvideBranchHandler creates the branch HTTP handler
func ProvideBranchHandler(branchService *services.BranchService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.BranchHandler {
	return handlers.NewBranchHandler(branchService, boardService, errorHandler, logger)
}

// ProvideChatHandler creates the chat HTTP handler
func ProvideChatHandler(chatService *services.ChatService, nodeService *services.NodeService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.ChatHandler {
	return handlers.NewChatHandler(chatService, nodeService, boardService, errorHandler, logger)
}

// ProvideRouter creates the configured HTTP handler
func ProvideRouter(
	cfg *config.Config,
	boardHandler *handlers.BoardHandler,
	nodeHandler *handlers.NodeHandler,
	linkHandler *handlers.LinkHandler,
	branchHandler *handlers.BranchHandler,
	chatHandler *handlers.ChatHandler,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(
		boardHandler,
		nodeHandler,
		linkHandler,
		branchHandler,
		chatHandler,
		validator,
		logger,
		cfg.EnableCORS,
	).Setup()
}
