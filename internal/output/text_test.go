package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextWriter_Computed(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Suggestions:\nDefine x before using it.\n") {
		t.Errorf("unexpected output start:\n%s", out)
	}
	for _, want := range []string{"Files: main.py, util.py", "openai/gpt-4", "computed", "ef46db3751d8e999"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriter_Cached(t *testing.T) {
	report := sampleReport()
	report.Cached = true
	report.Missing = []string{"gone.py"}
	report.Redacted = []string{"settings.py:3 aws-access-token"}

	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Using cached suggestions:\n") {
		t.Errorf("cached output should start with the cached header:\n%s", out)
	}
	if !strings.Contains(out, "Missing: gone.py") {
		t.Error("output should list missing files")
	}
	if !strings.Contains(out, "Redacted 1 secret(s)") {
		t.Error("output should report redactions")
	}
}

func TestTextWriter_QuietStreamed(t *testing.T) {
	report := sampleReport()
	report.Streamed = true

	var buf bytes.Buffer
	if err := (&TextWriter{Quiet: true}).Write(&buf, report); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n" {
		t.Errorf("streamed quiet output = %q, want a single newline", buf.String())
	}
}

func TestStreamPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := StreamPrinter(&buf)
	p("Define ")
	p("x")
	if got := buf.String(); got != "Suggestions:\nDefine x" {
		t.Errorf("stream output = %q", got)
	}
}
