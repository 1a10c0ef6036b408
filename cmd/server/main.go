package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"campushelp/helpdesk/internal/config"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/filter"
	"campushelp/helpdesk/internal/helpdesk"
	internalhttp "campushelp/helpdesk/internal/http"
	"campushelp/helpdesk/internal/jobs"
	"campushelp/helpdesk/internal/mail"
	"campushelp/helpdesk/internal/moderation"
	"campushelp/helpdesk/internal/notify"
	"campushelp/helpdesk/internal/otp"
	"campushelp/helpdesk/internal/push"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()
	store := db.NewStore(pool)

	var channel push.Channel = push.NopChannel{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		channel = push.NewRedisChannel(redisClient, cfg.PushRoomTTL)
	}

	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		log.Printf("smtp not configured, logging mail to console")
		sender = mail.NewConsoleSender()
	}

	dispatcher := notify.NewDispatcher(store, sender, channel, cfg.AppBaseURL, cfg.DeliveryTimeout)
	contentFilter := filter.New()
	otpEngine := otp.NewEngine(store, cfg.OTPTTL)
	moderationEngine := moderation.NewEngine(store, dispatcher)
	helpdeskService := helpdesk.NewService(store, contentFilter, dispatcher)

	server := internalhttp.NewServer(cfg, store, otpEngine, moderationEngine, helpdeskService, dispatcher, contentFilter, sender, channel)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartCleanupJob(ctx, store, cfg.CleanupInterval)

	go func() {
		log.Printf("helpdesk http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
