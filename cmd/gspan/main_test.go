package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHTML = `<html><head><title>Debate</title></head><body>` +
	`<p>JOHN SMITH [0:01]: Good evening.</p>` +
	`<p>+++++++++++++++++++++++++++++++++++++++++++++++++++</p>` +
	`<p>---</p><p>Author: Jane Roe (jroe@example.com)</p><p>Published: Yes</p><p>---</p><p>Fact check.</p>` +
	`<p>---------------------------------------------------</p>` +
	`<p>MODERATOR: Next question.</p>` +
	`<hr><p>END</p>` +
	`</body></html>`

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseCommand_File(t *testing.T) {
	path := writeFile(t, "debate.html", sampleHTML)
	out, _, err := runCLI(t, "", "parse", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Status   string `json:"status"`
		Contents []struct {
			Type     string         `json:"type"`
			Metadata map[string]any `json:"metadata"`
		} `json:"contents"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if doc.Status != "ended" {
		t.Errorf("expected ended, got %q", doc.Status)
	}
	if len(doc.Contents) != 3 {
		t.Fatalf("expected 3 records, got %d", len(doc.Contents))
	}
	if got := doc.Contents[1].Metadata["author"]; got != "Jane Roe (jroe@example.com)" {
		t.Errorf("expected raw author without a directory, got %v", got)
	}
}

func TestParseCommand_StdinWithFlags(t *testing.T) {
	authors := writeFile(t, "authors.yaml", "- email: jroe@example.com\n  name: Jane Roe\n")
	out, _, err := runCLI(t, sampleHTML, "parse", "-", "--authors", authors, "--ended-label", "after")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"status":"after"`) {
		t.Errorf("expected after label, got %s", out)
	}
	if !strings.Contains(out, `"name":"Jane Roe"`) {
		t.Errorf("expected resolved author record, got %s", out)
	}
}

func TestParseCommand_OutputFile(t *testing.T) {
	in := writeFile(t, "notes.txt", "JANE DOE: Hello.\n")
	outPath := filepath.Join(t.TempDir(), "out.json")
	stdout, _, err := runCLI(t, "", "parse", in, "-o", outPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"speaker":"JANE DOE"`) {
		t.Errorf("unexpected output %s", data)
	}
}

func TestParseCommand_Strict(t *testing.T) {
	unterminated := "<p>" + strings.Repeat("+", 50) + "</p><p>note</p>"
	_, _, err := runCLI(t, unterminated, "parse", "--strict")
	if err == nil {
		t.Fatal("expected strict mode to fail on diagnostics")
	}
}

func TestParseCommand_InvalidEndedLabel(t *testing.T) {
	_, _, err := runCLI(t, sampleHTML, "parse", "--ended-label", "over")
	if err == nil {
		t.Fatal("expected invalid configuration error")
	}
}

func TestInspectCommand_Plain(t *testing.T) {
	path := writeFile(t, "debate.html", sampleHTML)
	out, _, err := runCLI(t, "", "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "1,speaker,JOHN SMITH [0:01]") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2,annotation,") || !strings.Contains(lines[2], "true") {
		t.Errorf("unexpected annotation row %q", lines[2])
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeFile(t, "debate.html", sampleHTML)
	out, _, err := runCLI(t, "", "render", path, "--title", "Preview")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<title>Preview</title>") || !strings.Contains(out, "MODERATOR") {
		t.Errorf("unexpected preview:\n%s", out)
	}
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleHTML))
	}))
	defer srv.Close()

	cfgPath := writeFile(t, "gspan.toml", `export_url_template = "`+srv.URL+`/d/{id}"`+"\n")

	out, _, err := runCLI(t, "", "fetch", "abc", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != sampleHTML {
		t.Errorf("expected raw export on stdout")
	}

	out, _, err = runCLI(t, "", "fetch", "abc", "--config", cfgPath, "--parse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"status":"ended"`) {
		t.Errorf("expected parsed JSON, got %s", out)
	}
}

func TestServeCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("GSPAN_API_KEY", "")
	_, _, err := runCLI(t, "", "serve")
	if err == nil || !strings.Contains(err.Error(), "GSPAN_API_KEY") {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}
