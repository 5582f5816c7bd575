package di

import (
	"net/http"

	"tangent-backend/application/ports"
	"tangent-backend/application/services"
	"tangent-backend/infrastructure/config"
	"tangent-backend/pkg/auth"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	BoardRepo     ports.BoardRepository
	NodeRepo      ports.NodeRepository
	LinkRepo      ports.LinkRepository
	MessageRepo   ports.MessageRepository
	QuoteRepo     ports.QuoteRepository
	UoWFactory    ports.UnitOfWorkFactory
	Publisher     ports.EventPublisher
	Metrics       *observability.Metrics
	Validator     *auth.JWTValidator
	ErrorHandler  *pkgerrors.ErrorHandler
	BoardService  *services.BoardService
	NodeService   *services.NodeService
	LinkService   *services.LinkService
	BranchService *services.BranchService
	ChatService   *services.ChatService
	Handler       http.Handler
}
