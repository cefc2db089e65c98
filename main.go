package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/config"
	"github.com/sadopc/roster/internal/logger"
	"github.com/sadopc/roster/internal/store"
	"github.com/sadopc/roster/internal/tui"
)

func main() {
	cfgPath := flag.String("config", "", "path to a roster config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	s, err := store.New(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)

	// A stored token that is still unexpired skips the login screen; the
	// server gets the final say when the context is fetched.
	var resume string
	if tok := s.AuthToken(); tok != "" {
		claims, err := api.ParseToken(tok, time.Now())
		if err != nil {
			log.Info("stored token discarded", zap.Error(err))
			s.ClearAuthToken()
		} else {
			client.SetToken(tok)
			resume = claims.UserType
		}
	}

	log.Info("starting",
		zap.String("api", cfg.API.BaseURL),
		zap.String("db", cfg.Store.Path),
		zap.Bool("resume", resume != ""),
	)

	app := tui.NewApp(tui.Options{
		Store:      s,
		Client:     client,
		Log:        log,
		ExportDir:  cfg.Export.Dir,
		ResumeMode: resume,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
