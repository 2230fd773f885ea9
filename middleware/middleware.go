package middleware

import (
	"context"
	"sync"

	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/cache"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
)

// Middlewares defines all available middleware methods
type Middlewares interface {
	// Rate limiting middlewares
	RateLimit(config RateLimitConfig) gin.HandlerFunc
	APIRateLimits() gin.HandlerFunc
	AdminRateLimits() gin.HandlerFunc

	// Logging middlewares
	LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc
	RequestIDMiddleware() gin.HandlerFunc

	// CORS middlewares
	CORS(config ...CORSConfig) gin.HandlerFunc

	// Authentication middlewares
	Authenticator() gin.HandlerFunc

	// Authorization middlewares
	RequireAccess(action domain.ActionID) gin.HandlerFunc
	RegisteredActions() []domain.ActionID
}

type JwtProvider interface {
	Verify(tokenStr string) (*common.AccessClaims, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error)
}

// AccessConfig controls how denied requests are answered.
type AccessConfig interface {
	DeniedRedirect() string
}

// Dependencies holds all dependencies needed by middlewares
type Dependencies struct {
	Cache       cache.Client
	Logger      log.Logger
	JwtProvider JwtProvider
	UserRepo    UserRepository
	Guard       domain.RouteGuard
	Access      AccessConfig
}

// NewMiddlewares creates a new instance of middlewares with dependencies
func NewMiddlewares(deps Dependencies) Middlewares {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	deniedRedirect := defaultDeniedRedirect
	if deps.Access != nil && deps.Access.DeniedRedirect() != "" {
		deniedRedirect = deps.Access.DeniedRedirect()
	}
	return &middlewares{
		cache:          deps.Cache,
		logger:         logger,
		jwtProvider:    deps.JwtProvider,
		userRepo:       deps.UserRepo,
		guard:          deps.Guard,
		deniedRedirect: deniedRedirect,
	}
}

// middlewares is the concrete implementation of Middlewares interface
type middlewares struct {
	cache          cache.Client
	logger         log.Logger
	jwtProvider    JwtProvider
	userRepo       UserRepository
	guard          domain.RouteGuard
	deniedRedirect string

	mu      sync.Mutex
	actions []domain.ActionID
}
