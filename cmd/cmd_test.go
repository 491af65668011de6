package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["api"])
	assert.True(t, names["web"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestAPIRefusesWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfgFile = ""
	err := runAPI(apiCmd, nil)
	assert.ErrorContains(t, err, "JWT_SECRET")
}
