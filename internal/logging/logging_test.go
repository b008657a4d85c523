package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel logrus.Level
		wantErr   bool
	}{
		{name: "default level is info", cfg: Config{}, wantLevel: logrus.InfoLevel},
		{name: "explicit debug", cfg: Config{Level: "debug"}, wantLevel: logrus.DebugLevel},
		{name: "explicit warning", cfg: Config{Level: "warning"}, wantLevel: logrus.WarnLevel},
		{name: "invalid level", cfg: Config{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}
			if log != logrus.StandardLogger() {
				t.Error("New() should configure and return the standard logger")
			}
		})
	}
}
