package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/homunculy/chat-client/internal/api"
	"github.com/homunculy/chat-client/internal/audio"
	"github.com/homunculy/chat-client/internal/client"
	"github.com/homunculy/chat-client/internal/config"
	"github.com/homunculy/chat-client/internal/ui"
)

const dialTimeout = 15 * time.Second

var (
	versionFlag   = flag.Bool("version", false, "Show version information")
	debugFlag     = flag.Bool("debug", false, "Enable debug logging")
	serverFlag    = flag.String("server", "", "Companion server URL (overrides config)")
	companionFlag = flag.String("companion", "", "Companion ID to talk to (overrides config)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s v%s - %s\n\n", config.AppName, config.AppVersion, config.AppDescription)
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()

		configPath, err := config.GetConfigPath()
		if err == nil {
			fmt.Fprintf(os.Stderr, "\nConfig file: %s\n", configPath)
		}
	}
}

func setupLogging() {
	if *debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		logPath := os.TempDir() + "/homunculy-debug.log"
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
			logFile = os.Stderr
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
		fmt.Printf("Debug log: %s\n", logPath)
		log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)
		return
	}

	// Avoid TUI corruption by only logging errors to /dev/null
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
	if err == nil {
		log.Logger = log.Output(logFile)
	}
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		fmt.Println(config.AppDescription)
		os.Exit(0)
	}

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}
	if *companionFlag != "" {
		cfg.CompanionID = *companionFlag
	}
	if cfg.CompanionID == "" {
		fmt.Fprintln(os.Stderr, "No companion configured. Pass -companion or set companion_id in the config file.")
		os.Exit(1)
	}

	apiClient := api.NewClient(cfg.ServerURL)
	if err := apiClient.Health(); err != nil {
		fmt.Fprintf(os.Stderr, "Companion server unreachable: %v\n", err)
		os.Exit(1)
	}

	companion, err := apiClient.GetCompanion(cfg.CompanionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unknown companion %q: %v\n", cfg.CompanionID, err)
		os.Exit(1)
	}
	log.Info().Str("companion", companion.Name).Str("voice", companion.VoiceID).Msg("Companion resolved")

	player := audio.NewPlayer(cfg.Audio)
	if !player.Enabled() {
		fmt.Fprintln(os.Stderr, "Audio output unavailable, continuing without sound.")
	}

	chatUI := ui.NewUI(cfg, player, companion.Name)

	dialCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	session, err := client.Dial(dialCtx, cfg.ServerURL, cfg.CompanionID, player, chatUI.Callbacks())
	cancel()
	if err != nil {
		player.Stop()
		fmt.Fprintf(os.Stderr, "Failed to open chat session: %v\n", err)
		os.Exit(1)
	}
	chatUI.SetSession(session)

	go session.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, cleaning up...")
		chatUI.Shutdown()
	}()

	uiErr := chatUI.Run()

	session.Close()
	player.Stop()

	if uiErr != nil {
		log.Error().Err(uiErr).Msg("Error running UI")
		os.Exit(1)
	}
	log.Info().Msg("Homunculy client stopped")
}
