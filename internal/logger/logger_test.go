package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestSetup_WritesJSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, slog.LevelInfo).Warn("task created", slog.String("task_id", "t-1"), slog.Int("status", 201))

	entry := decodeLine(t, &buf)
	want := map[string]any{
		"msg":     "task created",
		"level":   "WARN",
		"service": ServiceName,
		"task_id": "t-1",
		"status":  float64(201),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field")
	}
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info below warn was written: %s", buf.String())
	}
	l.Error("kept")
	if buf.Len() == 0 {
		t.Error("error record was not written")
	}
}

func TestSetup_RedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, slog.LevelDebug).Info("login attempt",
		slog.String("email", "johndoe@example.com"),
		slog.String("password", "hunter2-secret"),
		slog.String("Authorization", "Bearer eyJhbGciOi"),
		slog.Group("request", slog.String("token", "eyJhbGciOi")),
	)

	raw := buf.String()
	for _, secret := range []string{"hunter2-secret", "eyJhbGciOi"} {
		if strings.Contains(raw, secret) {
			t.Errorf("secret %q leaked into log: %s", secret, raw)
		}
	}

	entry := decodeLine(t, &buf)
	if entry["email"] != "johndoe@example.com" {
		t.Errorf("email = %v, want it kept", entry["email"])
	}
	if entry["password"] != redacted {
		t.Errorf("password = %v, want %s", entry["password"], redacted)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "Warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "trace", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupDefault_ReplacesGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	got := SetupDefault(&buf, slog.LevelInfo)
	if got != slog.Default() {
		t.Error("SetupDefault should return the installed default logger")
	}

	slog.Info("via package func")
	if entry := decodeLine(t, &buf); entry["msg"] != "via package func" {
		t.Errorf("msg = %v", entry["msg"])
	}
}
