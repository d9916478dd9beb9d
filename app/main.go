package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty-system/internal/routes"
	"realty-system/pkg/config"
	"realty-system/pkg/database/postgresql"
	apperrors "realty-system/pkg/errors"
	applogger "realty-system/pkg/logger"
	"realty-system/pkg/middleware"
	"realty-system/pkg/service"
	"realty-system/pkg/utils"
	"realty-system/pkg/validation"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.FilePath)
	defer logger.Sync()

	e := echo.New()
	e.HideBanner = true

	// 2. Middleware
	e.Use(echomw.RequestID())
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("обнаружена паника",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.InjectLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))

	// 3. Валидатор: без него сервер не стартует
	v, err := validation.New()
	if err != nil {
		logger.Fatal("ошибка регистрации правил валидации", zap.Error(err))
	}
	e.Validator = v

	// 4. PostgreSQL и Redis
	dbConn, err := postgresql.ConnectDB(cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 5. Сервисы и роуты
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger)
	loggers := &routes.Loggers{
		Main:    logger,
		Auth:    logger.Named("auth"),
		Listing: logger.Named("listing"),
		Client:  logger.Named("client"),
		History: logger.Named("history"),
	}
	routes.InitRouter(e, dbConn, redisClient, jwtSvc, loggers, cfg)

	// 6. Запуск и остановка по сигналу
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("сервер запущен", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ошибка запуска сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("ошибка остановки сервера", zap.Error(err))
	}
	logger.Info("сервер остановлен")
}
