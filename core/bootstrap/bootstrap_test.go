package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/prefixbot/core/config"
	coretelegram "github.com/m3rciful/prefixbot/core/telegram"
)

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc"}}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunBuildsComponents(t *testing.T) {
	res, err := Run(Options{
		Config:     testConfig(t),
		LoggerInit: noLogger,
		Telegram: func(*coreconfig.Config) (coretelegram.RunOptions, error) {
			return coretelegram.RunOptions{}, nil
		},
	})

	require.NoError(t, err)
	comps := res.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, "telegram", comps[0].Name())
	assert.Equal(t, "health", comps[1].Name())
	assert.Nil(t, res.Health.Addr())
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Run(Options{Config: testConfig(t), LoggerInit: func(*coreconfig.Config) error { return boom }})
	assert.Error(t, err)

	_, err = Run(Options{
		Config:     testConfig(t),
		LoggerInit: func(*coreconfig.Config) error { return boom },
		Telegram: func(*coreconfig.Config) (coretelegram.RunOptions, error) {
			return coretelegram.RunOptions{}, nil
		},
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(Options{
		Config:     testConfig(t),
		LoggerInit: noLogger,
		Telegram: func(*coreconfig.Config) (coretelegram.RunOptions, error) {
			return coretelegram.RunOptions{}, boom
		},
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(Options{})
	assert.Error(t, err)
}
