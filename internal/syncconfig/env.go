package syncconfig

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSyncIntervalSeconds = 900

type DHIS2 struct {
	BaseURL  string
	Username string
	Password string
}

// DHIS2FromEnv reads the remote server credentials. All three are required.
func DHIS2FromEnv() (DHIS2, error) {
	d := DHIS2{
		BaseURL:  strings.TrimSpace(os.Getenv("DHIS2_BASE_URL")),
		Username: strings.TrimSpace(os.Getenv("DHIS2_USERNAME")),
		Password: os.Getenv("DHIS2_PASSWORD"),
	}
	if d.BaseURL == "" || d.Username == "" || d.Password == "" {
		return DHIS2{}, errors.New("missing env: DHIS2_BASE_URL, DHIS2_USERNAME, DHIS2_PASSWORD")
	}
	return d, nil
}

func SyncInterval() time.Duration {
	seconds := getenvIntDefault("SYNC_INTERVAL_SECONDS", defaultSyncIntervalSeconds)
	if seconds <= 0 {
		seconds = defaultSyncIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

func HTTPAddr() string {
	return getenvDefault("HTTP_ADDR", ":8080")
}

func DBDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getenvDefault("DB_HOST", "127.0.0.1")
	port := getenvDefault("DB_PORT", "5438")
	user := getenvDefault("DB_USER", "app")
	pass := getenvDefault("DB_PASSWORD", "app")
	name := getenvDefault("DB_NAME", "eregistry")
	sslmode := getenvDefault("DB_SSLMODE", "disable")

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, pass),
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getenvIntDefault(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func getenvDefault(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
