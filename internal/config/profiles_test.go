package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	isolate(t)

	_, err := ActiveConfigPath()
	require.ErrorIs(t, err, ErrNoConfig)

	def, err := InitDefaultConfig()
	require.NoError(t, err)

	_, err = InitDefaultConfig()
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = CreateConfig("work")
	require.NoError(t, err)
	_, err = CreateConfig("work")
	assert.Error(t, err)
	_, err = CreateConfig("../escape")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("work"))
	active, err := ActiveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, PathByLabel("work"), active)

	require.NoError(t, RenameConfig("work", "job"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "job", label)

	list, err := ListConfigs()
	require.NoError(t, err)
	assert.Equal(t, []Profile{
		{Label: "Default", Path: def, Active: false},
		{Label: "job", Path: PathByLabel("job"), Active: true},
	}, list)

	require.NoError(t, RemoveConfig("job"))
	label, err = CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, label)

	assert.Error(t, RemoveConfig(DefaultLabel))
	assert.Error(t, SwitchConfig("missing"))
}
