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

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("unknown flag"), ExitCommandError},
		{"exit error", NewExitError(ExitFailure, "no calls"), ExitFailure},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner")), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapExitError(ExitCommandError, "failed to open store", cause)

	assert.Equal(t, "failed to open store: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bare", NewExitError(ExitFailure, "bare").Error())
}

func TestOutputFormatter_EmitJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Emit(StoreResult{Keys: []string{"k1"}}, func(io.Writer) error {
		t.Fatal("text renderer called in json mode")
		return nil
	})
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   StoreResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"k1"}, resp.Data.Keys)
}

func TestOutputFormatter_EmitText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.Emit(nil, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf, ErrWriter: errBuf}

	require.NoError(t, f.Error(NewExitError(ExitFailure, "nothing to replay")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ExitFailure, resp.Error.Code)
	assert.Equal(t, "nothing to replay", resp.Error.Message)
	assert.Empty(t, errBuf.String())
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, ErrWriter: errBuf}

	require.NoError(t, f.Error(errors.New("boom")))
	assert.Empty(t, buf.String())
	assert.Equal(t, "Error: boom\n", errBuf.String())
}

func TestOutputFormatter_ErrorTextFallsBackToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Error(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())
}
