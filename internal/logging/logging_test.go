package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLogger_Levels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name    string
		logger  func(out, errOut *bytes.Buffer) Logger
		wantOut []string
		wantErr []string
		notOut  []string
	}{
		{
			name: "quiet",
			logger: func(out, errOut *bytes.Buffer) Logger {
				return Logger{Out: out, Err: errOut}
			},
			notOut: []string{"[info]", "[debug]"},
		},
		{
			name: "verbose",
			logger: func(out, errOut *bytes.Buffer) Logger {
				return Logger{Verbose: true, Out: out, Err: errOut}
			},
			wantOut: []string{"[info] hello"},
			wantErr: []string{"[warn] careful"},
			notOut:  []string{"[debug]"},
		},
		{
			name: "debug",
			logger: func(out, errOut *bytes.Buffer) Logger {
				return Logger{Debug: true, Out: out, Err: errOut}
			},
			wantOut: []string{"[info] hello", "[debug] details"},
			wantErr: []string{"[error] broken"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger(&out, &errOut)
			l.Infof("hello")
			l.Debugf("details")
			l.Warnf("careful")
			l.Errorf("broken")

			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("stdout missing %q, got: %q", want, out.String())
				}
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(errOut.String(), want) {
					t.Errorf("stderr missing %q, got: %q", want, errOut.String())
				}
			}
			for _, unwanted := range tt.notOut {
				if strings.Contains(out.String(), unwanted) {
					t.Errorf("stdout should not contain %q, got: %q", unwanted, out.String())
				}
			}
		})
	}
}

func TestLogger_ErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	err := l.ErrorfAndReturn("failed to open %s", "store.db")
	if err == nil || err.Error() != "failed to open store.db" {
		t.Fatalf("Expected formatted error, got: %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("Expected no output without debug, got: %q", errOut.String())
	}
}

func TestLogger_WarnfAlways(t *testing.T) {
	color.NoColor = true
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	l.WarnfAlways("store %s is read-only", "records.db")
	if !strings.Contains(errOut.String(), "[warn] store records.db is read-only") {
		t.Errorf("Expected warning output, got: %q", errOut.String())
	}
}
