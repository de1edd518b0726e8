package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, values map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.Set("CONFIG_DIR", t.TempDir())
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	v := newTestViper(t, map[string]any{
		"ADMIN_IDS":          "42, 43",
		"CHANNEL_IDS":        "-1001,-1002",
		"BOT_USERNAME":       "@catalog_bot",
		"OPERATOR_API_TOKEN": "op-token",
	})

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, []int64{42, 43}, cfg.AdminIDs)
	assert.Equal(t, []int64{-1001, -1002}, cfg.ChannelIDs)
	assert.Equal(t, "catalog_bot", cfg.BotUsername)
	assert.Equal(t, "op-token", cfg.OperatorAPIToken)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.Equal(t, 20, cfg.SearchTimeoutSeconds)
	assert.Equal(t, 120, cfg.SessionTTLMinutes)
	assert.Equal(t, "*/30 * * * *", cfg.PublishRetrySchedule)
	assert.Equal(t, "catalogarr.db", filepath.Base(cfg.DatabaseFile))
	assert.False(t, cfg.PublishingEnabled())
	assert.True(t, cfg.IsAdmin(43))
	assert.False(t, cfg.IsAdmin(7))
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"missing admins", map[string]any{"CHANNEL_IDS": "-1", "BOT_USERNAME": "b", "OPERATOR_API_TOKEN": "t"}},
		{"missing channels", map[string]any{"ADMIN_IDS": "1", "BOT_USERNAME": "b", "OPERATOR_API_TOKEN": "t"}},
		{"missing bot", map[string]any{"ADMIN_IDS": "1", "CHANNEL_IDS": "-1", "OPERATOR_API_TOKEN": "t"}},
		{"missing operator token", map[string]any{"ADMIN_IDS": "1", "CHANNEL_IDS": "-1", "BOT_USERNAME": "b"}},
		{"bad id", map[string]any{"ADMIN_IDS": "abc", "CHANNEL_IDS": "-1", "BOT_USERNAME": "b", "OPERATOR_API_TOKEN": "t"}},
		{"blog without credentials", map[string]any{
			"ADMIN_IDS": "1", "CHANNEL_IDS": "-1", "BOT_USERNAME": "b", "OPERATOR_API_TOKEN": "t", "BLOGGER_BLOG_ID": "123",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newTestViper(t, tt.values))
			assert.Error(t, err)
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList(" 1, ,2,")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
