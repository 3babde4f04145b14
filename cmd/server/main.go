package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/project-tracker/internal/auth"
	"github.com/chepyr/project-tracker/internal/config"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/handlers"
	"github.com/chepyr/project-tracker/internal/mail"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dbConn := initDB(cfg)
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	handler := initHandler(cfg, dbConn)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: handler.Routes(),
	}
	startServer(server, cfg.ServerPort)
}

func initDB(cfg *config.Config) *sql.DB {
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return dbConn
}

func initHandler(cfg *config.Config, dbConn *sql.DB) *handlers.Handler {
	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = &mail.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}
	}

	return &handlers.Handler{
		UserRepo:    db.NewUserRepository(dbConn),
		ProjectRepo: db.NewProjectRepository(dbConn),
		TaskRepo:    db.NewTaskRepository(dbConn),
		NoteRepo:    db.NewNoteRepository(dbConn),
		Sessions:    auth.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL),
		Tokens: auth.NewTokenService(
			db.NewTokenRepository(dbConn), cfg.TokenPolicy,
			cfg.ConfirmTokenTTL, cfg.ResetTokenTTL),
		Mailer: mailer,
		// allow max 5 attempts per 15 minutes from the same IP on the
		// account endpoints
		RateLimiter:   handlers.NewRateLimiter(5, 15*time.Minute),
		Hub:           handlers.NewHub(),
		MaskForbidden: cfg.MaskForbidden,
	}
}

func startServer(server *http.Server, port string) {
	log.Printf("Starting server on :%s", port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
