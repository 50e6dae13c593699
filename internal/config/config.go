package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything read from the environment at startup.
type Config struct {
	BotToken    string
	AdminIDs    []int64
	Port        string
	JWTSecret   string
	APIUser     string
	APIPassword string

	// DatabaseURL switches the quota store to Postgres when set; the
	// default is the flat file under DataDir.
	DatabaseURL string

	DataDir      string
	QuotaFile    string
	SessionsFile string
	DeviceDB     string

	BaseDailyLimit    int
	PremiumDailyLimit int
}

// FromEnv builds the runtime configuration. Only BOT_TOKEN is mandatory.
func FromEnv() (*Config, error) {
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN not set")
	}

	dataDir := getenv("DATA_DIR", ".")

	cfg := &Config{
		BotToken:          token,
		AdminIDs:          parseAdminIDs(os.Getenv("ADMIN_IDS")),
		Port:              getenv("PORT", "5000"),
		JWTSecret:         getenv("JWT_SECRET", "change-me"),
		APIUser:           getenv("API_USER", "root"),
		APIPassword:       getenv("API_PASSWORD", "root"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DataDir:           dataDir,
		QuotaFile:         dataDir + "/user_data.json",
		SessionsFile:      dataDir + "/sessions.txt",
		DeviceDB:          dataDir + "/devices.db",
		BaseDailyLimit:    getenvInt("MAX_DAILY_MESSAGES", 150),
		PremiumDailyLimit: getenvInt("PREMIUM_DAILY_MESSAGES", 1500),
	}
	return cfg, nil
}

// IsAdmin reports whether the given user ID is in ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
