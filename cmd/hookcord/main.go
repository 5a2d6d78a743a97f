package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hookcord/internal/command"
	"github.com/gosuda/hookcord/internal/config"
	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/engine"
	"github.com/gosuda/hookcord/internal/interaction"
	"github.com/gosuda/hookcord/internal/option"
	"github.com/gosuda/hookcord/internal/rest"
	"github.com/gosuda/hookcord/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("HOOKCORD_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("HOOKCORD_LOG_FORMAT")
	if logFormat == "console" || logFormat == "" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var restOpts []rest.Option
	if cfg.APIBaseURL != "" {
		restOpts = append(restOpts, rest.WithBaseURL(cfg.APIBaseURL))
	}
	rc := rest.New(cfg.BotToken, restOpts...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Entity caches behind option hydration.
	caches := engine.NewCaches(rc, cfg.CacheTTL, cfg.CacheMaxSize)
	caches.StartSweeping(ctx, cfg.CacheSweepInterval)

	commands := command.NewRegistry()
	components := command.NewComponentRegistry()
	modals := command.NewModalRegistry()

	if registerErr := registerHandlers(commands, components, modals); registerErr != nil {
		return registerErr
	}

	// Push the command schemas to the platform when asked.
	if cfg.RegisterCommands {
		if pushErr := rc.RegisterCommands(ctx, cfg.ApplicationID, commands.WireConfig()); pushErr != nil {
			return fmt.Errorf("register commands: %w", pushErr)
		}
	}

	eng := engine.New(commands, components, modals, rc,
		engine.WithEntitySource(caches),
		engine.WithAckTimeout(cfg.AckTimeout),
		engine.WithAutocompleteTimeout(cfg.AutocompleteTimeout),
	)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, eng)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// registerHandlers wires the built-in demonstration handlers: a fast reply, a
// deferred slow reply, an autocompleted echo and a button/modal round trip.
func registerHandlers(commands *command.Registry, components *command.ComponentRegistry, modals *command.ModalRegistry) error {
	_, err := commands.Register(command.Config{
		Name:        "ping",
		Description: "Check whether the bot is alive",
		AckBehavior: command.AckAuto,
	}, func(ctx context.Context, i *interaction.Command, _ option.Resolved) error {
		_, respErr := i.Respond(ctx, &discord.ResponseData{Content: "pong"})
		return respErr
	})
	if err != nil {
		return err
	}

	_, err = commands.Register(command.Config{
		Name:        "slow",
		Description: "Simulate a long-running task",
		AckBehavior: command.AckAutoEphemeral,
	}, func(ctx context.Context, i *interaction.Command, _ option.Resolved) error {
		time.Sleep(3 * time.Second)
		_, respErr := i.Respond(ctx, &discord.ResponseData{Content: "done, eventually"})
		return respErr
	})
	if err != nil {
		return err
	}

	fruits := []string{"apple", "banana", "cherry", "durian", "elderberry"}
	_, err = commands.Register(command.Config{
		Name:        "echo",
		Description: "Echo a message back",
		AckBehavior: command.AckAuto,
		Options: []option.Descriptor{
			{
				Name:         "message",
				Description:  "What to echo",
				Type:         discord.OptionTypeString,
				Required:     true,
				Autocomplete: true,
			},
		},
	}, func(ctx context.Context, i *interaction.Command, opts option.Resolved) error {
		_, respErr := i.Respond(ctx, &discord.ResponseData{Content: opts["message"].String()})
		return respErr
	}, func(_ context.Context, i *interaction.Autocomplete, _ string, opts option.Resolved) error {
		prefix := strings.ToLower(opts["message"].String())
		var choices []discord.Choice
		for _, f := range fruits {
			if strings.HasPrefix(f, prefix) {
				choices = append(choices, discord.StringChoice(f, f))
			}
		}
		i.RespondChoices(choices)
		return nil
	})
	if err != nil {
		return err
	}

	_, err = commands.Register(command.Config{
		Name:        "confirm",
		Description: "Ask for a confirmation button",
		AckBehavior: command.AckAuto,
	}, func(ctx context.Context, i *interaction.Command, _ option.Resolved) error {
		row, marshalErr := json.Marshal(map[string]any{
			"type": 1,
			"components": []map[string]any{
				{
					"type":      2,
					"style":     3,
					"label":     "Confirm",
					"custom_id": components.CustomID("confirm", i.ID),
				},
			},
		})
		if marshalErr != nil {
			return marshalErr
		}
		_, respErr := i.Respond(ctx, &discord.ResponseData{
			Content:    "Are you sure?",
			Components: []json.RawMessage{row},
		})
		return respErr
	})
	if err != nil {
		return err
	}

	_, err = components.Register(command.ComponentConfig{
		Name:        "confirm",
		Params:      []string{"origin"},
		AckBehavior: command.AckAutoUpdate,
	}, func(ctx context.Context, i *interaction.Component, args map[string]string) error {
		_, respErr := i.Respond(ctx, &discord.ResponseData{
			Content: "Confirmed " + args["origin"],
		})
		return respErr
	})
	if err != nil {
		return err
	}

	_, err = modals.Register(command.ModalConfig{
		Name:   "feedback",
		Params: nil,
	}, func(ctx context.Context, i *interaction.ModalSubmit, _ map[string]string) error {
		_, respErr := i.RespondEphemeral(ctx, &discord.ResponseData{
			Content: "Thanks for the feedback: " + i.Fields["feedback_text"],
		})
		return respErr
	})
	if err != nil {
		return err
	}

	return nil
}
