package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	assert.Equal(t, 8080, viper.GetInt("server.port"))
	assert.Equal(t, "medium", viper.GetString("transcription.model_size"))
	assert.Equal(t, "en", viper.GetString("transcription.language"))
	assert.Equal(t, 2, viper.GetInt("diarization.min_speakers"))
	assert.Equal(t, 4, viper.GetInt("diarization.max_speakers"))
	assert.Equal(t, 0.12, viper.GetFloat64("export.glue_gap"))
	assert.Equal(t, 2, viper.GetInt("processing.workers"))
	assert.Equal(t, 2*time.Second, viper.GetDuration("processing.poll_interval"))
}

func TestValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		viper.Reset()
		setDefaults()
		require.NoError(t, validate())
	})

	t.Run("bad port rejected", func(t *testing.T) {
		viper.Reset()
		setDefaults()
		viper.Set("server.port", 0)
		assert.Error(t, validate())
	})

	t.Run("min speakers above max rejected", func(t *testing.T) {
		viper.Reset()
		setDefaults()
		viper.Set("diarization.min_speakers", 6)
		assert.Error(t, validate())
	})

	t.Run("negative glue gap rejected", func(t *testing.T) {
		viper.Reset()
		setDefaults()
		viper.Set("export.glue_gap", -0.5)
		assert.Error(t, validate())
	})

	t.Run("worker count auto-corrected", func(t *testing.T) {
		viper.Reset()
		setDefaults()
		viper.Set("processing.workers", -1)
		require.NoError(t, validate())
		assert.Equal(t, 2, viper.GetInt("processing.workers"))
	})
}

func TestConfigStructValidate(t *testing.T) {
	cfg := &Config{
		Server:      ServerConfig{Port: 8080},
		Diarization: DiarizationConfig{MinSpeakers: 2, MaxSpeakers: 4},
		Processing:  ProcessingConfig{Workers: 0},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Processing.Workers, "zero workers corrected to default")

	bad := &Config{Server: ServerConfig{Port: 70000}}
	assert.Error(t, bad.Validate())
}

func TestGetConfigUnmarshal(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 16, cfg.Transcription.BatchSize)
	assert.True(t, cfg.Diarization.Enabled)
	assert.Equal(t, "./data/exports", cfg.Export.OutputDir)
}
