package main

import (
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

const (
	serverName    = "oura-mcp"
	serverVersion = "1.0.0"
)

func main() {
	cfg := LoadConfig()
	log := newLogger(cfg.LogLevel)

	store := NewTokenStore(cfg.TokenFile, log)
	app := NewApp(cfg, store, log)

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	app.RegisterTools(s)
	app.RegisterResources(s)

	if !cfg.HasCredentials() && cfg.AccessToken == "" && store.Load() == nil {
		log.Warn("no credentials or access token configured; only setup tools will work")
	}

	log.Infof("Starting %s v%s on stdio", serverName, serverVersion)
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newLogger builds a logrus logger writing to stderr; stdout carries the MCP
// wire protocol and must stay clean.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	case "info", "":
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.WithField("LOG_LEVEL", level).Warn("Unknown LOG_LEVEL, defaulting to info")
	}

	return log
}
