package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/quillworks/quill/schedule"
)

type Config struct {
	DiscordToken string
	DatabaseURL  string
	DatabaseType string
	ChannelName  string
	RoleName     string
	StartDay     time.Weekday
	StartAt      schedule.TimeOfDay
	EndDay       time.Weekday
	EndAt        schedule.TimeOfDay
}

// ParseFlags validates flags, falling back to environment variables.
// A bad or missing schedule is a configuration error: the process must not
// run with an undefined weekly cadence.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var startDay, startTime, endDay, endTime string

	fs := flag.NewFlagSet("quill", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ChannelName, "channel", "", "Challenge channel name")
	fs.StringVar(&cfg.RoleName, "role", "", "Participant role name")
	fs.StringVar(&startDay, "start-day", "", "Weekly start day (UTC)")
	fs.StringVar(&startTime, "start-time", "", "Weekly start time, H:M (UTC)")
	fs.StringVar(&endDay, "end-day", "", "Weekly end day (UTC)")
	fs.StringVar(&endTime, "end-time", "", "Weekly end time, H:M (UTC)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Secrets come from the environment only
	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN required")
	}

	// Fall back to environment variables
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.ChannelName == "" {
		cfg.ChannelName = envOr("CHALLENGE_CHANNEL", "weekly-quill")
	}
	if cfg.RoleName == "" {
		cfg.RoleName = envOr("CHALLENGE_ROLE", "Weekly Quill")
	}

	var err error
	cfg.StartDay, err = schedule.ParseWeekday(fallback(startDay, "START_DAY", "Monday"))
	if err != nil {
		return Config{}, fmt.Errorf("start day: %w", err)
	}
	cfg.StartAt, err = schedule.ParseTimeOfDay(fallback(startTime, "START_TIME", "14:00"))
	if err != nil {
		return Config{}, fmt.Errorf("start time: %w", err)
	}
	cfg.EndDay, err = schedule.ParseWeekday(fallback(endDay, "END_DAY", "Sunday"))
	if err != nil {
		return Config{}, fmt.Errorf("end day: %w", err)
	}
	cfg.EndAt, err = schedule.ParseTimeOfDay(fallback(endTime, "END_TIME", "16:00"))
	if err != nil {
		return Config{}, fmt.Errorf("end time: %w", err)
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fallback(flagVal, envKey, def string) string {
	if flagVal != "" {
		return flagVal
	}
	return envOr(envKey, def)
}
