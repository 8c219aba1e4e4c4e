package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nitish-vaani/codeyoung/internal/config"
	"github.com/nitish-vaani/codeyoung/internal/controller"
	"github.com/nitish-vaani/codeyoung/internal/domain"
	"github.com/nitish-vaani/codeyoung/internal/negotiate"
	"github.com/nitish-vaani/codeyoung/internal/transport"
	"github.com/nitish-vaani/codeyoung/pkg/log"
)

// consoleListener renders controller events on the terminal.
type consoleListener struct{}

func (consoleListener) OnMessage(msg domain.ChatMessage) {
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.Sender, msg.Content)
}

func (consoleListener) OnStateChange(state domain.ConnectionState) {
	log.L().Info().Str(log.FieldState, state.String()).Msg("connection state changed")
}

func (consoleListener) OnTyping(typing bool) {
	if typing {
		fmt.Println("... agent is typing")
	}
}

func (consoleListener) OnConnected() {
	fmt.Print("> ")
}

func (consoleListener) OnNotice(severity, summary, detail string) {
	fmt.Printf("(%s) %s: %s\n", severity, summary, detail)
}

func main() {
	userID := flag.String("user", "", "stored user identity (required)")
	userName := flag.String("name", "", "display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "a user identity is required: pass -user")
		os.Exit(1)
	}

	negotiator := negotiate.New(cfg.Backend)
	dialer := transport.NewWSDialer(cfg.Transport, cfg.WebSocket)
	ctrl := controller.New(negotiator, dialer, cfg.Agent, consoleListener{})
	ctrl.SetSurfaceVisible(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Every log line below carries the session actors.
	ctx = log.WithLogger(ctx, log.L().With().
		Str(log.FieldUserID, *userID).
		Str(log.FieldUserName, *userName).
		Str(log.FieldAgentID, cfg.Agent.ID).
		Logger())

	log.Ctx(ctx).Info().
		Str("transport_url", cfg.Transport.URL).
		Msg("starting chat session")

	if err := ctrl.StartSession(ctx, *userID, *userName); err != nil {
		fmt.Fprintf(os.Stderr, "could not start chat: %s\n", ctrl.ErrorText())
		os.Exit(1)
	}

	// End the session cleanly on interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		ctrl.EndSession()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			break
		}
		ctrl.SendMessage(ctx, line)
		fmt.Print("> ")
	}

	ctrl.EndSession()
	log.L().Info().Msg("chat session closed")
}
