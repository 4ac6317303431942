package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"crewpay-orchestrator/internal/config"
	"crewpay-orchestrator/internal/domain"
	"crewpay-orchestrator/internal/events"
	"crewpay-orchestrator/internal/storage"
	appTemporal "crewpay-orchestrator/internal/temporal"
)

// The event handler is the asynchronous intake path: claim JSON dropped
// into the bucket inbox starts a claim processing workflow, deduplicated
// on claim ID through the workflow ID.
func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "event-handler").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	store, err := storage.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer store.Close()

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect minio")
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect temporal")
	}
	defer temporalClient.Close()

	source := events.NewMinioClaimIntakeSource(minioClient, cfg.MinioBucket, storage.InboxPrefix)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("bucket", cfg.MinioBucket).Str("prefix", storage.InboxPrefix).Msg("listening for claim intake events")
	err = source.Run(ctx, func(parent context.Context, event events.ClaimIntakeEvent) error {
		execCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()

		obj, err := minioClient.GetObject(execCtx, cfg.MinioBucket, event.ObjectKey, minio.GetObjectOptions{})
		if err != nil {
			log.Error().Err(err).Str("object", event.ObjectKey).Msg("fetch claim object failed")
			return nil
		}
		var claim domain.Claim
		decodeErr := json.NewDecoder(obj).Decode(&claim)
		obj.Close()
		if decodeErr != nil {
			log.Error().Err(decodeErr).Str("object", event.ObjectKey).Msg("claim json is not decodable, skipping")
			return nil
		}
		if claim.ID == "" {
			claim.ID = event.ClaimID
		}
		if err := claim.Validate(); err != nil {
			log.Error().Err(err).Str("object", event.ObjectKey).Msg("claim failed input validation, skipping")
			return nil
		}

		if err := store.CreateSubmittedClaim(execCtx, claim); err != nil {
			return fmt.Errorf("record claim %s: %w", claim.ID, err)
		}
		runID := uuid.NewString()
		if err := store.CreateRun(execCtx, runID, string(appTemporal.RunKindClaimProcessing), claim.ID); err != nil {
			return fmt.Errorf("create run for claim %s: %w", claim.ID, err)
		}

		workflowID := fmt.Sprintf("%s-claim-%s", cfg.WorkflowIDPrefix, claim.ID)
		run, startErr := temporalClient.ExecuteWorkflow(execCtx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: cfg.TemporalTaskQueue,
		}, appTemporal.CrewPayWorkflowName, appTemporal.WorkflowInput{
			RunID:                runID,
			Kind:                 appTemporal.RunKindClaimProcessing,
			Claim:                &claim,
			ComplianceEnabled:    cfg.EnableComplianceChecks,
			NotificationsEnabled: cfg.EnableNotifications,
			MaxIterations:        cfg.MaxIterations,
		})
		if startErr != nil {
			var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(startErr, &alreadyStarted) {
				log.Info().Str("workflow_id", workflowID).Str("object", event.ObjectKey).Msg("workflow already started")
				return nil
			}
			return fmt.Errorf("start workflow for claim %s: %w", claim.ID, startErr)
		}

		log.Info().Str("workflow_id", workflowID).Str("run_id", runID).Str("object", event.ObjectKey).Msg("started claim workflow")

		// Record the outcome once the run finishes; intake itself stays
		// non-blocking.
		go func() {
			waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer waitCancel()
			var result appTemporal.WorkflowResult
			if err := run.Get(waitCtx, &result); err != nil {
				log.Error().Err(err).Str("run_id", runID).Msg("claim workflow failed")
				_ = store.CompleteRun(waitCtx, runID, domain.WorkflowFailed, err.Error(), 0)
				return
			}
			if err := store.CompleteRun(waitCtx, runID, result.Status, result.ErrorMessage, result.DurationSeconds); err != nil {
				log.Error().Err(err).Str("run_id", runID).Msg("complete run failed")
			}
		}()
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("event-handler stopped with error")
	}
}
