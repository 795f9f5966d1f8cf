package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Paths   PathsConfig
	Acquire AcquireConfig
	LLM     LLMConfig
	Store   StoreConfig
	Render  RenderConfig
	Queue   QueueConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	MaxUploadMB int64
}

// PathsConfig holds the transient artifact directories.
type PathsConfig struct {
	UploadDir     string
	ScreenshotDir string
}

// PDFPagePolicy controls what happens when a single page of a multi-page
// PDF fails to yield text.
type PDFPagePolicy string

const (
	// PDFPageGapMarker keeps going and inserts a gap marker for the page.
	PDFPageGapMarker PDFPagePolicy = "gap-marker"
	// PDFPageAbort fails the whole document on the first bad page.
	PDFPageAbort PDFPagePolicy = "abort"
)

// AcquireConfig holds text-acquisition configuration.
type AcquireConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // e.g., 6 is good for uniform block of text
	PDFPagePolicy PDFPagePolicy
}

// LLMConfig holds the Groq (OpenAI-compatible) client configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// StoreConfig holds the extraction-history store configuration.
type StoreConfig struct {
	DBPath string
}

// RenderConfig holds the external renderer command. Empty disables rendering.
type RenderConfig struct {
	Command string
	Timeout time.Duration
}

// QueueConfig holds the run-queue sizing.
type QueueConfig struct {
	Workers    int
	Size       int
	RunTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8001"),
			MaxUploadMB: int64(getEnvAsInt("MAX_UPLOAD_MB", 25)),
		},
		Paths: PathsConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			ScreenshotDir: getEnv("SCREENSHOT_DIR", "./screenshots"),
		},
		Acquire: AcquireConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("TESSERACT_PSM", 0),
			PDFPagePolicy: PDFPagePolicy(getEnv("PDF_PAGE_POLICY", string(PDFPageGapMarker))),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
			Temperature: getEnvAsFloat32("GROQ_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("GROQ_MAX_TOKENS", 2048),
			Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 45*time.Second),
			MaxAttempts: getEnvAsInt("GROQ_MAX_ATTEMPTS", 3),
			BackoffBase: getEnvAsDuration("GROQ_BACKOFF_BASE", 500*time.Millisecond),
		},
		Store: StoreConfig{
			DBPath: getEnv("DB_PATH", "./data/extractions.db"),
		},
		Render: RenderConfig{
			Command: getEnv("RENDERER_CMD", ""),
			Timeout: getEnvAsDuration("RENDERER_TIMEOUT", 60*time.Second),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 4),
			Size:       getEnvAsInt("QUEUE_SIZE", 64),
			RunTimeout: getEnvAsDuration("RUN_TIMEOUT", 3*time.Minute),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("config: GROQ_API_KEY is required")
	}
	if c.Server.Addr == "" {
		return errors.New("config: HTTP_ADDR is required")
	}
	switch c.Acquire.PDFPagePolicy {
	case PDFPageGapMarker, PDFPageAbort:
	default:
		return errors.New("config: PDF_PAGE_POLICY must be gap-marker or abort")
	}
	return nil
}

// InitDirectories creates the artifact directories if they don't exist.
func (c *Config) InitDirectories() error {
	for _, dir := range []string{c.Paths.UploadDir, c.Paths.ScreenshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
