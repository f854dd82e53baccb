package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	LogLevel  string
	LogFormat string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DocStoreDriver selects the document store backend: "redis" or "mysql".
	DocStoreDriver string

	JWTSecret string

	PistonURL            string
	PistonCompileTimeout int
	PistonRunTimeout     int
	UpstreamTimeout      time.Duration

	GraphQLURL string

	ChatBaseURL string
	ChatToken   string
	ChatModel   string

	// CommentsBackendURL, when set, forwards /api/posts routes instead of serving them locally.
	CommentsBackendURL string

	FixturesPath string

	NumberOfWorkers int
	ProgressStream  string
	ProgressGroup   string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "5000"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "leetclone"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DocStoreDriver: getEnv("DOCSTORE_DRIVER", "redis"),

		JWTSecret: getEnv("JWT_SECRET", "defaultsecret"),

		PistonURL:            getEnv("PISTON_URL", "https://emkc.org/api/v2/piston"),
		PistonCompileTimeout: getEnvAsInt("PISTON_COMPILE_TIMEOUT_MS", 10000),
		PistonRunTimeout:     getEnvAsInt("PISTON_RUN_TIMEOUT_MS", 3000),
		UpstreamTimeout:      time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,

		GraphQLURL: getEnv("GRAPHQL_URL", "https://leetcode.com/graphql"),

		ChatBaseURL: getEnv("CHAT_BASE_URL", "https://api.groq.com/openai/v1"),
		ChatToken:   getEnv("CHAT_API_KEY", ""),
		ChatModel:   getEnv("CHAT_MODEL", "llama3-8b-8192"),

		CommentsBackendURL: getEnv("COMMENTS_BACKEND_URL", ""),

		FixturesPath: getEnv("FIXTURES_PATH", "programskeleton.json"),

		NumberOfWorkers: getEnvAsInt("NUM_OF_WORKERS", 2),
		ProgressStream:  getEnv("PROGRESS_STREAM", "question_progress"),
		ProgressGroup:   getEnv("PROGRESS_GROUP", "progress_workers"),
	}
}

func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?charset=utf8mb4&parseTime=True&loc=Local"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
