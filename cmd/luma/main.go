// Luma - a companion orb that listens, thinks, and glows back.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/normanking/luma/internal/actuator"
	"github.com/normanking/luma/internal/brain"
	"github.com/normanking/luma/internal/bus"
	"github.com/normanking/luma/internal/config"
	"github.com/normanking/luma/internal/conversation"
	"github.com/normanking/luma/internal/logging"
	"github.com/normanking/luma/internal/narration"
)

func main() {
	// Structured logger first; everything else logs through it.
	syslog, err := logging.New(nil)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	mainLog := syslog.Component("main")
	mainLog.Info().Msg("========================================")
	mainLog.Info().Msg("Luma starting")

	cfg, err := config.Load()
	if err != nil {
		mainLog.Warn().Err(err).Msg("config load failed, using defaults")
	}

	events := bus.NewEventBus()

	orb := actuator.NewOrb()

	// The renderer bridge is optional; without a renderer URL the orb runs
	// headless and state changes only show up in the logs.
	var bridge *actuator.RendererBridge
	if cfg.Avatar.RendererURL != "" {
		bridge = actuator.NewRendererBridge(cfg.Avatar.RendererURL, syslog.Component("bridge"))
		if err := bridge.Connect(context.Background()); err != nil {
			mainLog.Warn().Err(err).Msg("renderer bridge failed to start")
		}
		orb.SetStateHandler(bridge.Push)
		defer bridge.Disconnect()
	}

	orbLog := syslog.Component("orb")
	events.Subscribe(bus.EventTypeDirectiveFired, func(e bus.Event) {
		orbLog.Info().
			Interface("category", e.Data["category"]).
			Interface("value", e.Data["value"]).
			Msg("directive fired")
	})
	events.Subscribe(bus.EventTypeDisplayText, func(e bus.Event) {
		if text, ok := e.Data["text"].(string); ok {
			fmt.Printf("\n  [display] %s\n", text)
		}
	})
	events.Subscribe(bus.EventTypeMeditationPhase, func(e bus.Event) {
		if phase, ok := e.Data["phase"].(string); ok {
			fmt.Printf("  [breathe] %s\n", phase)
		}
	})

	brainClient := brain.NewClient(&brain.ClientConfig{
		ServerURL: cfg.Brain.ServerURL,
		Timeout:   cfg.Brain.Timeout,
		UserID:    cfg.Brain.UserID,
		PersonaID: cfg.Brain.PersonaID,
	}, syslog.Component("brain"))

	narrator := narration.NewTickerEngine(cfg.Narration.CharsPerSecond, syslog.Component("narration"))

	opts := conversation.DefaultOptions()
	opts.ProcessingTimeout = cfg.Timers.ProcessingTimeout
	opts.IdleRevertDelay = cfg.Timers.IdleRevertDelay
	opts.ScreenRevertDelay = cfg.Timers.ScreenRevertDelay
	opts.BaselineEmotion = cfg.Avatar.BaselineEmotion
	opts.BaselineShape = cfg.Avatar.BaselineShape
	opts.DefaultDisplay = cfg.Avatar.DisplayText

	machine := conversation.NewMachine(opts, conversation.Deps{
		Brain:    brainClient,
		Narrator: narrator,
		Actuator: orb,
		Bus:      events,
		Logger:   syslog.Zerolog(),
	})

	config.Watch(func(fresh *config.Config) {
		mainLog.Info().Msg("config reloaded")
	})

	mainLog.Info().
		Str("brain", cfg.Brain.ServerURL).
		Str("session", brainClient.SessionID()).
		Str("logFile", syslog.LogPath()).
		Msg("Luma ready")

	go repl(machine, orb)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	machine.Cancel()
	mainLog.Info().Msg("Luma shutting down")
}

// repl reads lines from stdin: plain text is treated as an utterance, and
// slash commands exercise the non-voice transitions.
func repl(m *conversation.Machine, orb *actuator.Orb) {
	fmt.Println("Luma is listening. Type to talk; /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			if !m.StartListening() {
				fmt.Printf("  busy (%s), /cancel to interrupt\n", m.State())
				continue
			}
			m.StopListening()
			m.HandleTranscript(line)
			continue
		}

		cmd, arg, _ := strings.Cut(line[1:], " ")
		switch cmd {
		case "cancel":
			m.Cancel()
		case "state":
			fmt.Printf("  state=%s orb=%+v\n", m.State(), orb.GetState())
		case "carousel":
			if m.OpenCarousel() {
				fmt.Println("  carousel open; /shape <name> to pick, /close to leave")
			}
		case "panel":
			if m.OpenPanel() {
				fmt.Println("  panel open; /emotion <name> to pick, /close to leave")
			}
		case "tutorial":
			m.StartTutorial()
		case "shape":
			m.SelectShape(arg)
		case "emotion":
			m.SelectEmotion(arg)
		case "close":
			m.CloseModal()
		case "end":
			m.EndMeditation()
		case "persist":
			m.SetPersistEmotion(arg != "off")
		case "quit", "exit":
			os.Exit(0)
		case "help":
			fmt.Println("  /cancel /state /carousel /panel /tutorial /shape <name> /emotion <name> /close /end /persist [off] /quit")
		default:
			fmt.Printf("  unknown command %q, /help for the list\n", cmd)
		}
	}
}
