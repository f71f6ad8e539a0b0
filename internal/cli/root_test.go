package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hindsight", cmd.Use)
	assert.Contains(t, cmd.Long, "retrospective questions")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"instrument", "run", "ask", "stats", "sessions", "test", "watch"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSessionsSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	subcommands := []string{"list", "show", "verify", "export", "delete"}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{"sessions", name})
			require.NoError(t, err)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInstrumentCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	instrumentCmd, _, err := cmd.Find([]string{"instrument"})
	require.NoError(t, err)

	outputFlag := instrumentCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	pointsFlag := instrumentCmd.Flags().Lookup("points")
	require.NotNil(t, pointsFlag)
	assert.Equal(t, "false", pointsFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"save", "db", "label", "max-steps", "fallback"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
	assert.Equal(t, "0", runCmd.Flags().Lookup("max-steps").DefValue)
}

func TestAskCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	askCmd, _, err := cmd.Find([]string{"ask"})
	require.NoError(t, err)

	for _, name := range []string{"why", "variable", "function", "type", "property", "field", "value", "file", "line", "session", "db"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "invalid", "stats", "x.hsl"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
