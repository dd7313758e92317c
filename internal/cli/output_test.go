package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter(t *testing.T) {
	data := countsView{Men: 2, Women: 3}
	text := func(w io.Writer) { fmt.Fprint(w, "men 2 women 3") }

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, (&OutputFormatter{Format: "json", Writer: buf}).Print(data, text))
		var got countsView
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("yaml", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, (&OutputFormatter{Format: "yaml", Writer: buf}).Print(data, text))
		assert.Equal(t, "men: 2\nwomen: 3\n", buf.String())
	})

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).Print(data, text))
		assert.Equal(t, "men 2 women 3", buf.String())
	})
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "no store", errors.New("dial"))))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	err := WrapExitError(ExitFailure, "signup failed", io.EOF)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "signup failed: EOF", err.Error())
}
