package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Addr         string
	DBPath       string
	JWTSecret    string
	AIServiceURL string
	LogMode      string
	SeedQuizzes  bool
	// OpenTDBImport is the number of OpenTriviaDB questions imported as one
	// extra quiz at startup. Zero disables the import.
	OpenTDBImport int
}

type Client struct {
	ServerURL     string
	Token         string
	DBPath        string
	LogMode       string
	HTTPTimeout   time.Duration
	ProbeInterval time.Duration
}

// LoadDotEnv reads an optional .env file. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func LoadServer() Server {
	return Server{
		Addr:          getEnv("ADDR", ":8080"),
		DBPath:        getEnv("QUIZ_DB_PATH", "quiz.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AIServiceURL:  getEnv("AI_SERVICE_URL", ""),
		LogMode:       getEnv("LOG_MODE", "dev"),
		SeedQuizzes:   getBool("SEED_QUIZZES", true),
		OpenTDBImport: getInt("OPENTDB_IMPORT", 0),
	}
}

func LoadClient() Client {
	return Client{
		ServerURL:     getEnv("QUIZ_SERVER_URL", "http://127.0.0.1:8080"),
		Token:         getEnv("QUIZ_TOKEN", ""),
		DBPath:        getEnv("OFFLINE_DB_PATH", "offline.db"),
		LogMode:       getEnv("LOG_MODE", "quiet"),
		HTTPTimeout:   getDuration("HTTP_TIMEOUT", 5*time.Second),
		ProbeInterval: getDuration("PROBE_INTERVAL", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
