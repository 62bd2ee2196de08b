package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Processing    ProcessingConfig    `mapstructure:"processing"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Diarization   DiarizationConfig   `mapstructure:"diarization"`
	Export        ExportConfig        `mapstructure:"export"`
	Storage       StorageConfig       `mapstructure:"storage"`
	RateLimiting  RateLimitConfig     `mapstructure:"rate_limiting"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	LogQueries bool   `mapstructure:"log_queries"`
}

// ProcessingConfig contains pipeline worker settings
type ProcessingConfig struct {
	Workers       int           `mapstructure:"workers"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
}

// TranscriptionConfig contains speech-to-text settings
type TranscriptionConfig struct {
	ModelSize string `mapstructure:"model_size"` // tiny, base, small, medium, large
	Language  string `mapstructure:"language"`   // ISO code, "auto" for detection
	BatchSize int    `mapstructure:"batch_size"`
}

// DiarizationConfig contains speaker diarization settings
type DiarizationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MinSpeakers int    `mapstructure:"min_speakers"`
	MaxSpeakers int    `mapstructure:"max_speakers"`
	HFToken     string `mapstructure:"hf_token"`
}

// ExportConfig contains clip export settings
type ExportConfig struct {
	OutputDir string  `mapstructure:"output_dir"`
	GlueGap   float64 `mapstructure:"glue_gap"` // seconds bridged between kept words
}

// StorageConfig contains scratch and cache directory settings
type StorageConfig struct {
	TempDir  string `mapstructure:"temp_dir"`
	CacheDir string `mapstructure:"cache_dir"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	Burst             int  `mapstructure:"burst"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
	Output string `mapstructure:"output"` // stdout, stderr
}
