package push_dispatcher_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "pushgate.intents", cfg.In.Topic)
	assert.Equal(t, "push-dispatcher", cfg.In.GroupID)
	assert.Equal(t, 100, cfg.WebPush.BatchSize)
	assert.Equal(t, 86400, cfg.WebPush.TTLSeconds)
	assert.Equal(t, 10*time.Second, cfg.WebPush.Timeout)
	assert.Equal(t, ":8084", cfg.Server.MetricsAddr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kafka_in:
  topic: intents.staging
webpush:
  batch_size: 25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "intents.staging", cfg.In.Topic)
	assert.Equal(t, 25, cfg.WebPush.BatchSize)
	assert.Equal(t, "push-dispatcher", cfg.In.GroupID, "untouched keys keep defaults")
}
