package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/quillworks/quill/challenge"
	"github.com/quillworks/quill/cliparse"
	"github.com/quillworks/quill/db"
	"github.com/quillworks/quill/discord"
	"github.com/quillworks/quill/ideas"
	"github.com/quillworks/quill/poll"
	"github.com/quillworks/quill/schedule"
	"github.com/quillworks/quill/store"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Parse configuration; a bad weekly schedule is fatal
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the document store database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	st := store.New(dbConn)
	repo := ideas.New(st)

	// Open the Discord gateway
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		slog.Error("discord session failed", "error", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions

	if err := session.Open(); err != nil {
		slog.Error("discord gateway connection failed", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	adapter := discord.NewAdapter(session, cfg.ChannelName, cfg.RoleName)
	engine := poll.NewEngine(repo, st, adapter)

	mgr, err := challenge.NewManager(st, engine, adapter, cfg.EndDay, cfg.EndAt)
	if err != nil {
		slog.Error("lifecycle init failed", "error", err)
		os.Exit(1)
	}

	session.AddHandler(discord.NewCommands(mgr, repo, cfg.ChannelName).Handle)
	if err := discord.Register(session); err != nil {
		slog.Error("command registration failed", "error", err)
		os.Exit(1)
	}

	if err := session.UpdateListeningStatus("/info"); err != nil {
		slog.Warn("failed to set presence", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Weekly triggers share the lifecycle lock with admin commands, so a
	// scheduled and a manual transition can never interleave.
	start := schedule.Trigger{
		Name: "start", Day: cfg.StartDay, At: cfg.StartAt,
		Action: func() {
			if _, err := mgr.Start(); err != nil {
				slog.Error("scheduled start failed", "error", err)
			}
		},
	}
	end := schedule.Trigger{
		Name: "end", Day: cfg.EndDay, At: cfg.EndAt,
		Action: func() {
			if _, err := mgr.End(); err != nil {
				slog.Error("scheduled end failed", "error", err)
			}
		},
	}
	go start.Run(ctx)
	go end.Run(ctx)

	slog.Info("Bot ready",
		"channel", cfg.ChannelName,
		"start", cfg.StartDay.String()+" "+cfg.StartAt.String(),
		"end", cfg.EndDay.String()+" "+cfg.EndAt.String(),
	)
	<-ctx.Done()
	slog.Info("Shutting down")
}
