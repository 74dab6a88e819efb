package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/configs"
)

// TestGinWriter 测试 gin 输出转为对应级别的日志事件.
func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := NewGinWriter(&l, zerolog.InfoLevel)

	if _, err := w.Write([]byte("[GIN-debug] [WARNING] Running in \"debug\" mode\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `Running in \"debug\" mode`) {
		t.Errorf("warning line should be logged at warn level, got %s", out)
	}

	buf.Reset()

	_, _ = w.Write([]byte("[GIN-debug] GET /api/v1/files --> handler\n"))

	if !strings.Contains(buf.String(), `"level":"info"`) || strings.Contains(buf.String(), "GIN-debug") {
		t.Errorf("debug line should be trimmed and logged at info, got %s", buf.String())
	}

	buf.Reset()

	e := NewGinWriter(&l, zerolog.ErrorLevel)
	_, _ = e.Write([]byte("[WARNING] boom"))

	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("error writer should never lower the level, got %s", buf.String())
	}
}

// TestConsoleOrJSON 测试输出格式选择.
func TestConsoleOrJSON(t *testing.T) {
	var buf bytes.Buffer

	if w := consoleOrJSON("JSON", &buf); w != &buf {
		t.Errorf("json format should write through")
	}

	if _, ok := consoleOrJSON("console", &buf).(zerolog.ConsoleWriter); !ok {
		t.Errorf("console format should use ConsoleWriter")
	}
}

// TestNew 测试级别过滤与滚动文件输出.
func TestNew(t *testing.T) {
	var buf bytes.Buffer

	path := filepath.Join(t.TempDir(), "fv.log")

	l, err := New(configs.LogConfig{
		Level:  "warn",
		Format: "json",
		File:   configs.LogFileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	}, false, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"service":"filevault"`) {
		t.Errorf("stderr output = %s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	if !strings.Contains(string(data), "shown") {
		t.Errorf("file output = %s", data)
	}

	if _, err := New(configs.LogConfig{Level: "loud", Format: "json"}, false, &buf); err == nil {
		t.Error("expected error for invalid level")
	}
}
