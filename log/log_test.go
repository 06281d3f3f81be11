package log_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreamerjackson/shopcrawler/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrape.log")

	logger, closer, err := log.Build(log.Config{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Info("page fetched", zap.Int("page", 2))
	logger.Debug("card resolved")
	_ = logger.Sync()
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "page fetched", entry["msg"])
	assert.EqualValues(t, 2, entry["page"])
	assert.Contains(t, entry, "time")
}

func TestBuildLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "default", level: ""},
		{name: "upper", level: "WARN"},
		{name: "lower", level: "error"},
		{name: "invalid", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, closer, err := log.Build(log.Config{Level: tt.level})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.NoError(t, closer.Close())
		})
	}
}
