package main

import (
	"log"

	"github.com/podsight/internal/ai"
	"github.com/podsight/internal/api"
	"github.com/podsight/internal/auth"
	"github.com/podsight/internal/config"
	"github.com/podsight/internal/database"
	"github.com/podsight/internal/jobs"
	"github.com/podsight/internal/notify"
	"github.com/podsight/internal/report"
)

func main() {
	cfg := config.LoadConfig()

	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	auth.Init(cfg.Auth.JWTSecret)

	llm := ai.NewOpenAIClient(ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	}, log.Default())

	notifier := notify.NewManager(&notify.Config{
		SlackToken:     cfg.Notify.Slack.Token,
		SlackChannel:   cfg.Notify.Slack.Channel,
		SMTPHost:       cfg.Notify.Email.SMTPHost,
		SMTPPort:       cfg.Notify.Email.SMTPPort,
		EmailFrom:      cfg.Notify.Email.From,
		EmailPassword:  cfg.Notify.Email.Password,
		EmailReceivers: cfg.Notify.Email.ToReceivers,
	})

	pipeline := report.NewPipeline(db, llm, notifier, log.Default())
	service := report.NewService(db, pipeline)

	if cfg.Scheduler.Enabled {
		cronManager := jobs.NewCronManager(pipeline, log.Default())
		if err := cronManager.SetupJobs(); err != nil {
			log.Fatalf("Failed to set up cron jobs: %v", err)
		}
		cronManager.Start()
		defer cronManager.Stop()
	}

	server := api.NewServer(service, pipeline)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
