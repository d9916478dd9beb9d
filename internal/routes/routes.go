package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"realty-system/internal/controllers"
	"realty-system/internal/repositories"
	"realty-system/internal/services"
	"realty-system/pkg/config"
	"realty-system/pkg/middleware"
	"realty-system/pkg/pdf"
	"realty-system/pkg/service"
)

type Loggers struct {
	Main    *zap.Logger
	Auth    *zap.Logger
	Listing *zap.Logger
	Client  *zap.Logger
	History *zap.Logger
}

// Controllers - все обработчики API, собранные в InitRouter.
type Controllers struct {
	Auth      *controllers.AuthController
	Listing   *controllers.ListingController
	Client    *controllers.ClientController
	History   *controllers.HistoryController
	Reference *controllers.ReferenceController
	Handbook  *controllers.HandbookController
	Filial    *controllers.FilialController
	User      *controllers.UserController
}

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: начало создания маршрутов")

	// --- 1. РЕПОЗИТОРИИ ---
	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	permissionRepo := repositories.NewPermissionRepository(dbConn, loggers.Auth)
	groupRepo := repositories.NewGroupRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	listingRepo := repositories.NewListingRepository(dbConn, loggers.Listing)
	clientRepo := repositories.NewClientRepository(dbConn, loggers.Client)
	selectionRepo := repositories.NewSelectionRepository(dbConn, loggers.Client)
	historyRepo := repositories.NewHistoryRepository(dbConn, loggers.History)
	filialRepo := repositories.NewFilialRepository(dbConn, loggers.Main)
	referenceRepo := repositories.NewReferenceRepository(dbConn, loggers.Main)
	handbookRepo := repositories.NewHandbookRepository(dbConn, loggers.Main)
	softDeleteRepo := repositories.NewSoftDeleteRepository(dbConn, loggers.Main)

	// --- 2. СЕРВИСЫ ---
	authPermissionService := services.NewAuthPermissionService(permissionRepo, cacheRepo, loggers.Auth, cfg.Auth.PermissionsCacheTTL)
	authService := services.NewAuthService(userRepo, authPermissionService, loggers.Auth)
	historyService := services.NewHistoryService(historyRepo, loggers.History)
	loaders := services.NewSnapshotLoaders(listingRepo, clientRepo, filialRepo, referenceRepo, handbookRepo)
	softDelete := services.NewSoftDeleteService(txManager, softDeleteRepo, historyRepo, loaders, loggers.Main)

	listingService := services.NewListingService(txManager, listingRepo, userRepo, historyRepo, softDelete, historyService, loggers.Listing)
	clientService := services.NewClientService(txManager, clientRepo, userRepo, historyRepo, softDelete, historyService, loggers.Client)
	selectionService := services.NewSelectionService(txManager, listingRepo, clientRepo, selectionRepo, historyRepo, loggers.Client)
	actService := services.NewShowingActService(selectionService, pdf.NewActRenderer(cfg.Report.FontPath), loggers.Client)
	referenceService := services.NewReferenceService(txManager, referenceRepo, historyRepo, softDelete, loggers.Main)
	handbookService := services.NewHandbookService(txManager, handbookRepo, historyRepo, softDelete, loggers.Main)
	filialService := services.NewFilialService(txManager, filialRepo, historyRepo, softDelete, loggers.Main)
	userService := services.NewUserService(txManager, userRepo, permissionRepo, groupRepo, authPermissionService, loggers.Auth)

	// --- 3. КОНТРОЛЛЕРЫ ---
	ctrls := &Controllers{
		Auth:      controllers.NewAuthController(authService, jwtSvc, loggers.Auth),
		Listing:   controllers.NewListingController(listingService, selectionService, loggers.Listing),
		Client:    controllers.NewClientController(clientService, selectionService, actService, loggers.Client),
		History:   controllers.NewHistoryController(historyService, loggers.History),
		Reference: controllers.NewReferenceController(referenceService, loggers.Main),
		Handbook:  controllers.NewHandbookController(handbookService, loggers.Main),
		Filial:    controllers.NewFilialController(filialService, loggers.Main),
		User:      controllers.NewUserController(userService, loggers.Main),
	}
	authMW := middleware.NewAuthMiddleware(jwtSvc, authService, loggers.Auth)

	// --- 4. РОУТЕРЫ ---
	RegisterRoutes(e, ctrls, authMW.Auth)

	loggers.Main.Info("InitRouter: создание маршрутов завершено")
}

// RegisterRoutes вешает маршруты на /api. Всё, кроме входа и обновления
// токенов, закрыто auth.
func RegisterRoutes(e *echo.Echo, ctrls *Controllers, auth echo.MiddlewareFunc) {
	api := e.Group("/api")
	secureGroup := api.Group("", auth)

	runAuthRouter(api, ctrls.Auth, auth)
	runListingRouter(secureGroup, ctrls.Listing)
	runClientRouter(secureGroup, ctrls.Client)
	runHistoryRouter(secureGroup, ctrls.History)
	runReferenceRouter(secureGroup, ctrls.Reference, ctrls.Handbook)
	runFilialRouter(secureGroup, ctrls.Filial)
	runUserRouter(secureGroup, ctrls.User)
}
