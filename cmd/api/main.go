package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskFlow/internal/app"
	"taskFlow/internal/config"
	"taskFlow/internal/logger"
	"taskFlow/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yml")
	migrate := flag.String("migrate", "", "применить (up) или откатить (down) миграции и выйти")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, migrate string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if migrate != "" {
		if err := postgres.Migrate(cfg.Database.URL, migrate); err != nil {
			return fmt.Errorf("миграции %s: %w", migrate, err)
		}
		fmt.Printf("миграции %s применены\n", migrate)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	defer application.Close()

	if err := application.Init(ctx); err != nil {
		logger.Error("App: Ошибка инициализации", err)
		return err
	}

	return application.Run(ctx)
}
