package main

import (
	"os"
	"os/signal"
	"syscall"

	"coin-checkpoints/api"
	"coin-checkpoints/checkpoint"
	"coin-checkpoints/config"
	"coin-checkpoints/log"
	"coin-checkpoints/net"
	"coin-checkpoints/tracker"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log.Init(&cfg.Log)
	defer log.Sync()

	logger, err := checkpoint.New(cfg.Checkpoint.Dir, cfg.Checkpoint.Name)
	if err != nil {
		zap.S().Fatal(err)
	}
	defer logger.Close()
	zap.S().Infof("Checkpoint logger started, writing to [%s]", logger.Path())

	client := net.New(&cfg.Net)

	t := tracker.New(client, logger, tracker.Options{
		StartHeight:  cfg.Tracker.StartHeight,
		Follow:       cfg.Tracker.Follow,
		PollInterval: cfg.Tracker.GetPollInterval(),
	})
	t.Start()

	var apiSrv *api.Server
	if cfg.Server.HttpPort != 0 {
		apiSrv = api.New(t, logger.Path, &cfg.Server)
		apiSrv.Start()
	}

	c := cron.New(cron.WithSeconds())
	if cfg.Checkpoint.RotateSpec != "" {
		if _, err := c.AddFunc(cfg.Checkpoint.RotateSpec, func() {
			if err := logger.Rotate(); err != nil {
				zap.S().Errorf("Rotate checkpoint log: %v", err)
			}
		}); err != nil {
			zap.S().Fatalf("Invalid rotate spec [%s]: %v", cfg.Checkpoint.RotateSpec, err)
		}
	}
	if cfg.Tracker.ReportSpec != "" {
		if _, err := c.AddFunc(cfg.Tracker.ReportSpec, t.Report); err != nil {
			zap.S().Fatalf("Invalid report spec [%s]: %v", cfg.Tracker.ReportSpec, err)
		}
	}
	c.Start()

	watchOSSignal(t)

	<-c.Stop().Done()
	if apiSrv != nil {
		apiSrv.Stop()
	}

	if err := t.Err(); err != nil {
		zap.S().Errorf("Tracker failed: %v", err)
		log.Sync()
		os.Exit(1)
	}
	_ = tracker.WriteSummary(os.Stdout, t.Stats())
}

// watchOSSignal returns when the walk ends or the process is told to stop.
func watchOSSignal(t *tracker.Tracker) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-c:
		zap.S().Info("Received stop signal")
	case <-t.Done():
	}
	t.Stop()
}
