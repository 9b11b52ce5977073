package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	LLM      LLMConfig
	OCR      OCRConfig
	RAG      RAGConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	Template TemplateConfig
	Cleanup  CleanupConfig
	CORS     CORSConfig
	Security SecurityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings. The database is optional:
// when Host is empty the reference-report retrieval simply stays disabled.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Enabled reports whether a database was configured at all.
func (d *DBConfig) Enabled() bool {
	return d.Host != ""
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UploadPrefix  string `mapstructure:"upload_prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LLMConfig holds OpenRouter chat-completion settings.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Endpoint    string  `mapstructure:"endpoint"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	Referer     string  `mapstructure:"referer"`
	Title       string  `mapstructure:"title"`
}

// OCRConfig holds settings for the external OCR service used on images.
type OCRConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// RAGConfig holds reference-report retrieval settings.
type RAGConfig struct {
	HFAPIKey       string `mapstructure:"hf_api_key"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	TopK           int    `mapstructure:"top_k"`
	CacheSize      int    `mapstructure:"cache_size"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
}

// UploadConfig holds request upload limits.
type UploadConfig struct {
	MaxFileSizeMB  int64 `mapstructure:"max_file_size_mb"`
	MaxTotalSizeMB int64 `mapstructure:"max_total_size_mb"`
	MaxFiles       int   `mapstructure:"max_files"`
}

// PipelineConfig holds generation pipeline knobs.
type PipelineConfig struct {
	// ExpansionConcurrency caps concurrent section-expansion LLM calls.
	// Zero means unlimited.
	ExpansionConcurrency int `mapstructure:"expansion_concurrency"`
	MaxPromptChars       int `mapstructure:"max_prompt_chars"`
	MaxStyleParagraphs   int `mapstructure:"max_style_paragraphs"`
}

// TemplateConfig holds document template settings.
type TemplateConfig struct {
	Path     string `mapstructure:"path"`
	StyleDir string `mapstructure:"style_dir"`
}

// CleanupConfig holds the periodic S3 cleanup job settings.
type CleanupConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxAgeHours int           `mapstructure:"max_age_hours"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SecurityConfig holds API authentication settings. An empty APIKey disables
// the check, which is only acceptable in development.
type SecurityConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Load reads configuration from environment variables with the PERITO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PERITO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults (empty host keeps the database optional)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "perito")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "perito_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "eu-south-1")
	v.SetDefault("s3.bucket", "perito-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.upload_prefix", "uploads/")
	v.SetDefault("s3.presign_expiry", 3600)

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "google/gemini-2.5-pro")
	v.SetDefault("llm.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.referer", "https://perito.example.com")
	v.SetDefault("llm.title", "bot-perito")

	// OCR defaults
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.timeout_secs", 60)

	// RAG defaults
	v.SetDefault("rag.hf_api_key", "")
	v.SetDefault("rag.embedding_model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("rag.top_k", 3)
	v.SetDefault("rag.cache_size", 256)
	v.SetDefault("rag.timeout_secs", 30)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 25)
	v.SetDefault("upload.max_total_size_mb", 100)
	v.SetDefault("upload.max_files", 20)

	// Pipeline defaults
	v.SetDefault("pipeline.expansion_concurrency", 0)
	v.SetDefault("pipeline.max_prompt_chars", 4_000_000)
	v.SetDefault("pipeline.max_style_paragraphs", 8)

	// Template defaults
	v.SetDefault("template.path", "templates/template_perizia.docx")
	v.SetDefault("template.style_dir", "reference_reports")

	// Cleanup defaults
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.interval", "1h")
	v.SetDefault("cleanup.max_age_hours", 240)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Security defaults
	v.SetDefault("security.api_key", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "PERITO_SERVER_PORT",
		"server.read_timeout":           "PERITO_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "PERITO_SERVER_WRITE_TIMEOUT",
		"server.environment":            "PERITO_SERVER_ENVIRONMENT",
		"db.host":                       "PERITO_DB_HOST",
		"db.port":                       "PERITO_DB_PORT",
		"db.user":                       "PERITO_DB_USER",
		"db.password":                   "PERITO_DB_PASSWORD",
		"db.name":                       "PERITO_DB_NAME",
		"db.sslmode":                    "PERITO_DB_SSLMODE",
		"db.max_open":                   "PERITO_DB_MAX_OPEN",
		"db.max_idle":                   "PERITO_DB_MAX_IDLE",
		"s3.region":                     "PERITO_S3_REGION",
		"s3.bucket":                     "PERITO_S3_BUCKET",
		"s3.endpoint":                   "PERITO_S3_ENDPOINT",
		"s3.access_key":                 "PERITO_S3_ACCESS_KEY",
		"s3.secret_key":                 "PERITO_S3_SECRET_KEY",
		"s3.upload_prefix":              "PERITO_S3_UPLOAD_PREFIX",
		"s3.presign_expiry":             "PERITO_S3_PRESIGN_EXPIRY",
		"llm.api_key":                   "PERITO_LLM_API_KEY",
		"llm.model":                     "PERITO_LLM_MODEL",
		"llm.endpoint":                  "PERITO_LLM_ENDPOINT",
		"llm.temperature":               "PERITO_LLM_TEMPERATURE",
		"llm.max_tokens":                "PERITO_LLM_MAX_TOKENS",
		"llm.max_retries":               "PERITO_LLM_MAX_RETRIES",
		"llm.timeout_secs":              "PERITO_LLM_TIMEOUT_SECS",
		"llm.referer":                   "PERITO_LLM_REFERER",
		"llm.title":                     "PERITO_LLM_TITLE",
		"ocr.endpoint":                  "PERITO_OCR_ENDPOINT",
		"ocr.api_key":                   "PERITO_OCR_API_KEY",
		"ocr.timeout_secs":              "PERITO_OCR_TIMEOUT_SECS",
		"rag.hf_api_key":                "PERITO_RAG_HF_API_KEY",
		"rag.embedding_model":           "PERITO_RAG_EMBEDDING_MODEL",
		"rag.top_k":                     "PERITO_RAG_TOP_K",
		"rag.cache_size":                "PERITO_RAG_CACHE_SIZE",
		"rag.timeout_secs":              "PERITO_RAG_TIMEOUT_SECS",
		"upload.max_file_size_mb":       "PERITO_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_total_size_mb":      "PERITO_UPLOAD_MAX_TOTAL_SIZE_MB",
		"upload.max_files":              "PERITO_UPLOAD_MAX_FILES",
		"pipeline.expansion_concurrency": "PERITO_PIPELINE_EXPANSION_CONCURRENCY",
		"pipeline.max_prompt_chars":      "PERITO_PIPELINE_MAX_PROMPT_CHARS",
		"pipeline.max_style_paragraphs":  "PERITO_PIPELINE_MAX_STYLE_PARAGRAPHS",
		"template.path":                 "PERITO_TEMPLATE_PATH",
		"template.style_dir":            "PERITO_TEMPLATE_STYLE_DIR",
		"cleanup.enabled":               "PERITO_CLEANUP_ENABLED",
		"cleanup.interval":              "PERITO_CLEANUP_INTERVAL",
		"cleanup.max_age_hours":         "PERITO_CLEANUP_MAX_AGE_HOURS",
		"cors.allowed_origins":          "PERITO_CORS_ALLOWED_ORIGINS",
		"security.api_key":              "PERITO_SECURITY_API_KEY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PERITO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PERITO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		UploadPrefix:  v.GetString("s3.upload_prefix"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.LLM = LLMConfig{
		APIKey:      v.GetString("llm.api_key"),
		Model:       v.GetString("llm.model"),
		Endpoint:    v.GetString("llm.endpoint"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		TimeoutSecs: v.GetInt("llm.timeout_secs"),
		Referer:     v.GetString("llm.referer"),
		Title:       v.GetString("llm.title"),
	}
	cfg.OCR = OCRConfig{
		Endpoint:    v.GetString("ocr.endpoint"),
		APIKey:      v.GetString("ocr.api_key"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}
	cfg.RAG = RAGConfig{
		HFAPIKey:       v.GetString("rag.hf_api_key"),
		EmbeddingModel: v.GetString("rag.embedding_model"),
		TopK:           v.GetInt("rag.top_k"),
		CacheSize:      v.GetInt("rag.cache_size"),
		TimeoutSecs:    v.GetInt("rag.timeout_secs"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB:  v.GetInt64("upload.max_file_size_mb"),
		MaxTotalSizeMB: v.GetInt64("upload.max_total_size_mb"),
		MaxFiles:       v.GetInt("upload.max_files"),
	}
	cfg.Pipeline = PipelineConfig{
		ExpansionConcurrency: v.GetInt("pipeline.expansion_concurrency"),
		MaxPromptChars:       v.GetInt("pipeline.max_prompt_chars"),
		MaxStyleParagraphs:   v.GetInt("pipeline.max_style_paragraphs"),
	}
	cfg.Template = TemplateConfig{
		Path:     v.GetString("template.path"),
		StyleDir: v.GetString("template.style_dir"),
	}
	cfg.Cleanup = CleanupConfig{
		Enabled:     v.GetBool("cleanup.enabled"),
		Interval:    v.GetDuration("cleanup.interval"),
		MaxAgeHours: v.GetInt("cleanup.max_age_hours"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Security = SecurityConfig{
		APIKey: v.GetString("security.api_key"),
	}

	return cfg, nil
}

// Validate checks settings that generation cannot run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("PERITO_LLM_API_KEY is required")
	}
	if c.Template.Path == "" {
		return fmt.Errorf("PERITO_TEMPLATE_PATH is required")
	}
	return nil
}
