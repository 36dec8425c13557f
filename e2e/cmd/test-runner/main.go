package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/checker"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/executor"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-wellbeing/internal/bootstrap"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
	"github.com/saaga0h/jeeves-wellbeing/pkg/postgres"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

func main() {
	cfg := config.NewConfig()
	cfg.ServiceName = "wellbeing-e2e"
	cfg.LoadFromEnv()

	scenarioPath := pflag.String("scenario", "", "Path to YAML scenario file (required)")
	outputDir := pflag.String("output-dir", "./test-output", "Output directory for test artifacts")
	withRedis := pflag.Bool("check-redis", true, "Connect to Redis for redis_key expectations")
	withPostgres := pflag.Bool("check-postgres", true, "Connect to Postgres for postgres_query expectations")
	cfg.LoadFromFlags()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg)

	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Loaded scenario", "path", *scenarioPath, "events", len(scen.Events))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mqttClient := mqtt.NewClient(cfg, logger)
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	err = mqttClient.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Error("Failed to connect to MQTT", "error", err)
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	var redisClient redis.Client
	if *withRedis {
		if redisClient = bootstrap.ConnectRedis(ctx, cfg, logger); redisClient != nil {
			defer redisClient.Close()
		}
	}

	var pgChecker *checker.PostgresChecker
	if *withPostgres {
		pgClient := postgres.NewClient(cfg, logger)
		if err := pgClient.Connect(ctx); err != nil {
			logger.Warn("Postgres unavailable, postgres expectations will fail", "error", err)
		} else {
			defer pgClient.Disconnect()
			pgChecker = checker.NewPostgresChecker(pgClient, logger)
		}
	}

	runner := executor.NewRunner(mqttClient, redisClient, pgChecker, logger)
	result, timelineEvents, err := runner.Run(ctx, scen)
	if err != nil {
		logger.Error("Test execution failed", "error", err)
		os.Exit(1)
	}

	scenarioName := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	timeline := reporter.GenerateTimeline(result, timelineEvents)
	fmt.Println(timeline)

	timelinePath := filepath.Join(*outputDir, "timelines", scenarioName+".txt")
	if err := reporter.SaveTimeline(timeline, timelinePath); err != nil {
		logger.Warn("Failed to save timeline", "error", err)
	}

	capturePath := filepath.Join(*outputDir, "captures", scenarioName+".json")
	if err := runner.SaveCapture(capturePath); err != nil {
		logger.Warn("Failed to save capture", "error", err)
	}

	summaryPath := filepath.Join(*outputDir, "summaries", scenarioName+".json")
	if err := reporter.SaveSummary(result, summaryPath); err != nil {
		logger.Warn("Failed to save summary", "error", err)
	} else {
		logger.Info("Summary saved", "path", summaryPath)
	}

	if !result.Passed {
		os.Exit(1)
	}
}
