// Command kbroker starts the broker façade: it parses the KRaft
// combined-metadata log once, then serves ApiVersions, DescribeTopicPartitions,
// and Fetch requests off the resulting index.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ashutoshpw/kbroker/internal/config"
	"github.com/ashutoshpw/kbroker/internal/handler"
	"github.com/ashutoshpw/kbroker/internal/metadata"
	"github.com/ashutoshpw/kbroker/internal/server"
	"github.com/ashutoshpw/kbroker/pkg/logger"
)

func main() {
	log := logger.New(logger.INFO)
	cfg := config.Default()

	log.Info("parsing metadata log %s", cfg.MetadataLogPath)
	f, err := os.Open(cfg.MetadataLogPath)
	if err != nil {
		log.Error("open metadata log: %s", err)
		os.Exit(1)
	}

	index, err := metadata.Parse(f, log)
	f.Close()
	if err != nil {
		log.Error("parse metadata log: %s", err)
		os.Exit(1)
	}
	log.Info("metadata index built, %d batches", len(index.Offsets()))

	h := handler.New(cfg, index, log)
	s := server.New(cfg.ListenAddr, h, log)
	if err := s.Start(); err != nil {
		log.Error("start server: %s", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	s.Stop()
}
