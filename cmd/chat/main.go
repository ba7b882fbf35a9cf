package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"chat-client/auth"
	"chat-client/domain"
	"chat-client/infrastructure/rest"
	"chat-client/infrastructure/upload"
	"chat-client/internal"
	"chat-client/moderation"
	"chat-client/observability"
	"chat-client/realtime"
	"chat-client/repositories"
	"chat-client/runtime"
	"chat-client/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the session lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Local history cache (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Backend clients
	client := rest.NewClient(config.BackendURL, config.HTTPTimeout, log)
	directory := rest.NewDirectoryClient(client)
	store := rest.NewStoreClient(client)
	users := rest.NewUserClient(client)
	uploader := upload.NewCloudinaryClient(config.UploadURL, config.UploadPreset, config.UploadTimeout, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Identity
	identity := auth.NewProvider(auth.NewTokenParser([]byte(config.AuthTokenSecret)), users, log)
	if config.IDToken != "" {
		if _, err := identity.SignIn(ctx, config.IDToken); err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}
	}

	// 6. Moderation
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	wordlist, err := moderation.LoadWordlist()
	if err != nil {
		return fmt.Errorf("loading wordlists failed: %w", err)
	}
	moderator, err := moderation.NewModerator(wordlist.Words, replacement, log)
	if err != nil {
		return fmt.Errorf("building moderator failed: %w", err)
	}

	// 7. Realtime channel
	channel, err := realtime.Dial(config.ChannelURL, config.ChannelOrigin, log)
	if err != nil {
		return err
	}
	defer func() { _ = channel.Close() }()

	// 8. Session engine
	stats := observability.NewSessionStats()
	cache := repositories.NewMessageCache(db, log)
	engine := session.NewEngine(session.Deps{
		Directory: directory,
		Store:     store,
		Uploader:  uploader,
		Channel:   channel,
		Identity:  identity,
		Moderator: &moderator,
		Cache:     cache,
		Stats:     stats,
		OnAppend:  renderMessage,
		Log:       log,
	})
	defer engine.Close()

	if err := engine.Initialize(ctx); err != nil {
		return err
	}

	// 9. Debug server & supervised workers
	internal.StartDebugServer(config.DebugPort, stats, cache, log)

	sup := runtime.NewSupervisor(log, config.RestartInterval)
	sup.Add(channel, runtime.NewReporterWorker(log, stats, config.ReportInterval))
	go sup.Run(ctx)

	// 10. Prompt loop
	prompt(ctx, engine)

	sup.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

func prompt(ctx context.Context, engine *session.Engine) {
	color.Green.Println("Connected. Commands: /rooms /join <id> /history /upload <path> /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/rooms":
			printRooms(engine.Rooms())
		case line == "/history":
			printTimeline(engine.Timeline())
		case strings.HasPrefix(line, "/join "):
			engine.SelectRoom(ctx, domain.RoomID(strings.TrimSpace(strings.TrimPrefix(line, "/join "))))
		case strings.HasPrefix(line, "/upload "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
			data, err := os.ReadFile(path)
			if err != nil {
				color.Red.Printf("Cannot read %s: %v\n", path, err)
				continue
			}
			if err := engine.SendAttachment(ctx, data, ""); err != nil {
				color.Red.Printf("Attachment failed: %v\n", err)
			}
		default:
			if err := engine.SendMessage(ctx, line); err != nil {
				color.Red.Printf("Send failed: %v\n", err)
			}
		}
	}
}

func printRooms(rooms []domain.Room) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title"})
	for _, room := range rooms {
		table.Append([]string{string(room.ID), room.Title})
	}
	table.Render()
}

func printTimeline(messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Kind", "Message"})
	for _, m := range messages {
		table.Append([]string{
			m.At.Local().Format("15:04:05"),
			m.Sender,
			string(m.Kind),
			m.Body,
		})
	}
	table.Render()
}

func renderMessage(m domain.Message) {
	color.Gray.Printf("[%s] ", m.At.Local().Format("15:04:05"))
	color.Cyan.Printf("%s", m.Sender)
	fmt.Printf(": %s\n", m.Body)
}
