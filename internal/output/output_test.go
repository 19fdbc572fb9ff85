package output

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type sample struct {
	Name      string `json:"name"`
	Available bool   `json:"isAvailable"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", FormatText, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDetectFormatPriority(t *testing.T) {
	t.Setenv(EnvFormat, "yaml")

	if f, _ := DetectFormat("text", true); f != FormatText {
		t.Errorf("--format should win, got %v", f)
	}
	if f, _ := DetectFormat("", true); f != FormatJSON {
		t.Errorf("--json should beat env, got %v", f)
	}
	if f, _ := DetectFormat("", false); f != FormatYAML {
		t.Errorf("env should apply, got %v", f)
	}
}

func TestOutputDataJSON(t *testing.T) {
	var buf bytes.Buffer
	f := New(WithFormat(FormatJSON), WithWriter(&buf), WithPretty(false))
	err := f.OutputData(sample{Name: "Speakers", Available: true}, func(io.Writer) error {
		t.Fatal("text func called in JSON mode")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"name":"Speakers","isAvailable":true}` {
		t.Errorf("JSON = %s", got)
	}
}

func TestOutputDataYAMLUsesJSONTags(t *testing.T) {
	var buf bytes.Buffer
	f := New(WithFormat(FormatYAML), WithWriter(&buf))
	if err := f.Structured([]sample{{Name: "HDMI"}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: HDMI") || !strings.Contains(out, "isAvailable: false") {
		t.Errorf("YAML = %q", out)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "NAME", "STATE")
	tbl.AddRow("Kopfhörer", "current")
	tbl.AddRow("HDMI")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "  NAME       STATE" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[3] != "  HDMI" {
		t.Errorf("short row = %q", lines[3])
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Built-in Audio Analog Stereo", 12); got != "Built-in ..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 12); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestFormatCLIErrorPlain(t *testing.T) {
	e := DeviceNotFoundError("USB DAC").WithCause("not in pactl output")
	got := FormatCLIError(e, false)
	want := "Error: audio device \"USB DAC\" is not available [DEVICE_NOT_FOUND]\n" +
		"  Cause: not in pactl output\n" +
		"  Hint: " + HintDeviceNotFound + "\n"
	if got != want {
		t.Errorf("FormatCLIError =\n%s\nwant\n%s", got, want)
	}
}

func TestReport(t *testing.T) {
	var out, errOut bytes.Buffer
	New(WithFormat(FormatJSON), WithWriter(&out)).Report(errors.New("boom"), &errOut)
	if !strings.Contains(out.String(), `"error": "boom"`) || errOut.Len() != 0 {
		t.Errorf("structured report: out=%q err=%q", out.String(), errOut.String())
	}

	out.Reset()
	New(WithWriter(&out)).Report(NewCLIError("nope").WithHint("try again"), &errOut)
	if out.Len() != 0 || !strings.Contains(errOut.String(), "Hint: try again") {
		t.Errorf("text report: out=%q err=%q", out.String(), errOut.String())
	}
}

func TestCountStr(t *testing.T) {
	if got := CountStr(1, "device", "devices"); got != "1 device" {
		t.Errorf("CountStr = %q", got)
	}
	if got := CountStr(3, "window", "windows"); got != "3 windows" {
		t.Errorf("CountStr = %q", got)
	}
}

type sampleResult struct{ s sample }

func (r sampleResult) Text(w io.Writer) error {
	_, err := io.WriteString(w, r.s.Name+"\n")
	return err
}

func (r sampleResult) Data() interface{} { return r.s }

func TestOutputResult(t *testing.T) {
	var buf bytes.Buffer
	f, err := DefaultFormatter(&buf, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Output(sampleResult{sample{Name: "Speakers"}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Speakers\n" {
		t.Errorf("text output = %q", buf.String())
	}

	buf.Reset()
	f, err = DefaultFormatter(&buf, "yaml", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Output(sampleResult{sample{Name: "Speakers", Available: true}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "isAvailable: true") {
		t.Errorf("yaml output = %q", buf.String())
	}

	if _, err := DefaultFormatter(&buf, "xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRenderMarkdownWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, "# Preferences\n\n1. Speakers\n\nAuto-hide delay: 5s\n"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Preferences", "Speakers", "Auto-hide delay: 5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if got := markdownStyle(&buf); got != "notty" {
		t.Errorf("style for a buffer = %q, want notty", got)
	}
}
