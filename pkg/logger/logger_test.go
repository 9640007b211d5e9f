package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	defer func() {
		os.Stdout = stdout
	}()

	f()
	w.Close()
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		env       Enviroment
		addSource bool
		wantDebug bool
	}{
		{name: "Prod", env: Prod},
		{name: "Staging", env: Staging},
		{name: "Dev", env: Dev, wantDebug: true},
		{name: "Dev with source", env: Dev, addSource: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureStdout(t, func() {
				log := NewLogger(tt.env, tt.addSource)
				log.Info("connected to node", slog.String("node_id", "scm1"))
				log.Debug("failing over to next node")
			})

			assert.Contains(t, output, `"msg":"connected to node"`)
			assert.Contains(t, output, `"node_id":"scm1"`)
			if tt.wantDebug {
				assert.Contains(t, output, `"msg":"failing over to next node"`)
			} else {
				assert.NotContains(t, output, `"msg":"failing over to next node"`)
			}
			if tt.addSource {
				assert.Contains(t, output, `"source":`)
				assert.Contains(t, output, "logger_test.go")
			} else {
				assert.NotContains(t, output, `"source":`)
			}
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	b, log := NewTestLogger()
	require.NotNil(t, b)
	require.NotNil(t, log)

	log.Debug("retry policy consulted", slog.Int("retries", 2), ErrAttr(errors.New("not leader")))
	logged := b.String()

	assert.Contains(t, logged, "level=DEBUG")
	assert.Contains(t, logged, `msg="retry policy consulted"`)
	assert.Contains(t, logged, "retries=2")
	assert.Contains(t, logged, `error="not leader"`)
	assert.NotContains(t, logged, "source=")
}

func TestParseEnv(t *testing.T) {
	cases := map[string]Enviroment{
		"prod":    Prod,
		"PROD":    Prod,
		"dev":     Dev,
		"":        Dev,
		"staging": Staging,
	}
	for in, want := range cases {
		got, err := ParseEnv(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEnv("qa")
	assert.Error(t, err)
}

func TestErrAttr(t *testing.T) {
	testErr := errors.New("something went wrong")
	attr := ErrAttr(testErr)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong").Kind(), attr.Value.Kind())
	assert.Equal(t, "something went wrong", attr.Value.String())
}

func TestErrAttrNil(t *testing.T) {
	attr := ErrAttr(nil)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "<nil>", attr.Value.String())
}
