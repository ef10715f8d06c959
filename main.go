package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/swipevocab/internal/api"
	"github.com/example/swipevocab/internal/auth"
	"github.com/example/swipevocab/internal/bot"
	"github.com/example/swipevocab/internal/config"
	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/excel"
	"github.com/example/swipevocab/internal/linkcode"
	"github.com/example/swipevocab/internal/scheduler"
)

func main() {
	importPath := flag.String("import", "", "import words from an Excel/CSV file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Подключаемся к базе данных
	if err := database.Connect(cfg.DatabaseURL, cfg.DBPath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Режим импорта: загружаем каталог слов и выходим
	if *importPath != "" {
		importConfig := excel.DefaultImportConfig()
		importConfig.FilePath = *importPath
		result, err := excel.ImportWords(importConfig)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Import finished: %d processed, %d created, %d updated, %d skipped",
			result.TotalProcessed, result.Created, result.Updated, result.Skipped)
		for _, importErr := range result.Errors {
			log.Printf("Import error: %s", importErr)
		}
		return
	}

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("Failed to create JWT service: %v", err)
	}

	users := database.NewUserRepository()
	words := database.NewWordRepository()
	progress := database.NewProgressRepository()
	codes := linkcode.NewStore(cfg.LinkCodeTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Бот опционален: без токена работает только HTTP API
	var tgBot *bot.Bot
	var notifier scheduler.Notifier = noopNotifier{}
	if cfg.TelegramBotToken != "" {
		tgBot, err = bot.New(cfg.TelegramBotToken, jwtService, codes, users, words, progress)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		notifier = tgBot
		go func() {
			if err := tgBot.Start(ctx); err != nil {
				log.Printf("Bot error: %v", err)
			}
		}()
	} else {
		log.Println("TELEGRAM_BOT_TOKEN is not set, bot disabled")
	}

	jobs := scheduler.New(notifier, codes, cfg.NotificationStartHour, cfg.NotificationEndHour)
	jobs.Start()
	defer jobs.Stop()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(jwtService, users, words, progress, codes),
	}

	go func() {
		log.Printf("HTTP server listening on :%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Ждем сигнала завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped successfully")
}

// noopNotifier is used when the bot is disabled
type noopNotifier struct{}

func (noopNotifier) Notify(userID string, count int) error { return nil }
