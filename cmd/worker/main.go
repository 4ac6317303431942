package main

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"crewpay-orchestrator/internal/config"
	"crewpay-orchestrator/internal/notify"
	"crewpay-orchestrator/internal/openai"
	"crewpay-orchestrator/internal/rules"
	"crewpay-orchestrator/internal/storage"
	appTemporal "crewpay-orchestrator/internal/temporal"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	store, err := storage.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer store.Close()

	llm := openai.NewHTTPClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	// NATS is optional infrastructure: a failed connect means dispatch is
	// skipped, not that the worker refuses to start.
	var notifier *notify.Publisher
	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, notification dispatch disabled")
	} else {
		defer natsConn.Drain()
		notifier = notify.NewPublisher(natsConn, log)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect temporal")
	}
	defer temporalClient.Close()

	activities := &appTemporal.Activities{
		Store:       store,
		LLM:         llm,
		Notifier:    notifier,
		Log:         log,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		Timeout:     time.Duration(cfg.OpenAITimeoutSec) * time.Second,
		Thresholds: rules.PayThresholds{
			MaxRegularHoursPerWeek:  cfg.MaxRegularHoursPerWeek,
			MaxOvertimeHoursPerWeek: cfg.MaxOvertimeHoursPerWeek,
		},
		MinimumHourlyWage:    cfg.MinimumHourlyWage,
		AutoApproveThreshold: cfg.AutoApproveClaimThreshold,
	}

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appTemporal.CrewPayWorkflow, workflow.RegisterOptions{Name: appTemporal.CrewPayWorkflowName})
	w.RegisterActivity(activities.PayValidationActivity)
	w.RegisterActivity(activities.ClaimsProcessingActivity)
	w.RegisterActivity(activities.ComplianceActivity)
	w.RegisterActivity(activities.NotificationActivity)

	log.Info().Str("task_queue", cfg.TemporalTaskQueue).Msg("worker running")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
}
