package main

import (
	"context"
	"flag"
	"log"

	"realty-system/migrations"
	"realty-system/pkg/config"
	"realty-system/pkg/database/postgresql"
	applogger "realty-system/pkg/logger"
	"realty-system/seeders"

	"go.uber.org/zap"
)

func main() {
	runMigrate := flag.Bool("migrate", false, "Применить миграции схемы")
	runCore := flag.Bool("core", false, "Права, группы и базовые справочники")
	runAdmin := flag.Bool("admin", false, "Создать суперпользователя (SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD)")
	runAll := flag.Bool("all", false, "Всё сразу: -migrate -core -admin")
	flag.Parse()

	if !*runMigrate && !*runCore && !*runAdmin && !*runAll {
		log.Println("Не выбран ни один шаг. Доступные флаги:")
		flag.PrintDefaults()
		log.Println("Пример: go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, "")
	defer logger.Sync()

	ctx := context.Background()
	db, err := postgresql.ConnectDB(cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	if *runAll || *runMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			logger.Fatal("ошибка миграций", zap.Error(err))
		}
		logger.Info("миграции применены")
	}

	s := seeders.New(db, logger)
	if *runAll || *runCore {
		if err := s.SeedCore(ctx); err != nil {
			logger.Fatal("ошибка наполнения справочников", zap.Error(err))
		}
	}
	if *runAll || *runAdmin {
		if err := s.SeedSuperAdmin(ctx, cfg.Seed); err != nil {
			logger.Fatal("ошибка создания суперпользователя", zap.Error(err))
		}
	}
	logger.Info("готово")
}
