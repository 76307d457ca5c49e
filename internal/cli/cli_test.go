package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nickhildebrandt/memegen/internal/compose"
)

// newImgflipServer serves a one-entry landscape catalogue and its PNG.
func newImgflipServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 800))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 30, 60, 90, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_memes":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"memes":[{"id":"1","name":"wide","url":"` + server.URL + `/img/wide.png","width":1000,"height":800}]}}`))
		case "/img/wide.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// isolateEnv clears every variable the config reads so tests do not depend on the host.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MEMEGEN_OUTPUT_DIR", "MEMEGEN_FONTS_DIR", "MEMEGEN_FONT", "MEMEGEN_FONT_URL",
		"GEMINI_API_KEY", "GEMINI_MODEL", "IMGFLIP_ENDPOINT", "MEMEGEN_LISTEN_ADDR",
		"MEMEGEN_HTTP_TIMEOUT", "MEMEGEN_TEMPLATE_CACHE_TTL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// TestGenerate_CustomCaptions verifies the generate command writes a PNG using the catalogue and builtin font.
// The test fails if the command errors or the file is missing from the output directory.
func TestGenerate_CustomCaptions(t *testing.T) {
	isolateEnv(t)
	server := newImgflipServer(t)
	t.Setenv("IMGFLIP_ENDPOINT", server.URL+"/get_memes")
	out := filepath.Join(t.TempDir(), "out")

	stdout, stderr, err := runCLI(t, "", "generate", "--top", "A", "--bottom", "B", "--font", "builtin", "--output-dir", out, "--json")
	if err != nil {
		t.Fatalf("generate error: %v\nstderr: %s", err, stderr)
	}

	var res compose.Result
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if !res.Success || res.Topic != "Custom Meme" || res.TopText != "A" || res.BottomText != "B" {
		t.Fatalf("unexpected result %+v", res)
	}
	if filepath.Dir(res.FilePath) != out || !strings.HasPrefix(res.FileName, "meme_custom_") {
		t.Fatalf("unexpected path %q", res.FilePath)
	}
	if info, err := os.Stat(res.FilePath); err != nil || info.Size() == 0 {
		t.Fatalf("output missing: %v", err)
	}
}

func TestGenerate_TemplateUnavailable(t *testing.T) {
	isolateEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	t.Setenv("IMGFLIP_ENDPOINT", server.URL)

	stdout, _, err := runCLI(t, "", "generate", "--topic", "exams", "--font", "builtin", "--output-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "template_unavailable") {
		t.Fatalf("expected template_unavailable error, got %v", err)
	}
	if !strings.Contains(stdout, "Failed (template_unavailable)") {
		t.Fatalf("stdout: %q", stdout)
	}
}

func TestGenerate_RequiresTopicOrCaptions(t *testing.T) {
	isolateEnv(t)
	for _, args := range [][]string{
		{"generate"},
		{"generate", "--top", "only top"},
		{"generate", "--topic", "   "},
	} {
		_, _, err := runCLI(t, "", args...)
		if err == nil || !strings.Contains(err.Error(), "--topic is required") {
			t.Fatalf("%v: unexpected error %v", args, err)
		}
	}
}

func TestGenerate_MissingFontFails(t *testing.T) {
	isolateEnv(t)
	_, _, err := runCLI(t, "", "generate", "--topic", "x", "--font", filepath.Join(t.TempDir(), "nope.ttf"))
	if err == nil || !strings.Contains(err.Error(), "no usable font") {
		t.Fatalf("expected font error, got %v", err)
	}
}

func TestCategoriesCommand(t *testing.T) {
	isolateEnv(t)
	stdout, _, err := runCLI(t, "", "categories")
	if err != nil {
		t.Fatalf("categories error: %v", err)
	}
	for _, want := range []string{"1. Youth & Gen Z Roasts [youth]", "8. Current Trends & Viral Culture [trends]", "   - Family WhatsApp groups spreading fake news"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, "", "categories", "--json")
	if err != nil {
		t.Fatalf("categories --json error: %v", err)
	}
	var m map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(stdout), &m); err != nil || len(m) != 8 {
		t.Fatalf("json output: %v (%d entries)", err, len(m))
	}
}

// TestCompressCommand runs the compress command on a generated PNG in each mode.
func TestCompressCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "meme_x.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(3, 3, color.RGBA{255, 255, 255, 255})
	f, err := os.Create(in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	stdout, _, err := runCLI(t, "", "compress", in, "--quality", "low")
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "meme_x_compressed.jpg")); err != nil || !strings.Contains(stdout, "(jpeg, low)") {
		t.Fatalf("compressed file missing (%v), stdout %q", err, stdout)
	}

	if _, _, err := runCLI(t, "", "compress", in, "--all-formats"); err != nil {
		t.Fatalf("compress --all-formats error: %v", err)
	}
	for _, name := range []string{"meme_x_jpeg.jpg", "meme_x_png.png", "meme_x_bmp.bmp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}

	stdout, _, err = runCLI(t, "", "compress", in, "--recommend")
	if err != nil || !strings.Contains(stdout, "Dimensions:        40x20") || !strings.Contains(stdout, "png_low") {
		t.Fatalf("recommend: %v\n%s", err, stdout)
	}

	if _, _, err := runCLI(t, "", "compress", in, "--format", "webp"); err == nil || !strings.Contains(err.Error(), "supported: jpeg, png, bmp") {
		t.Fatalf("webp: unexpected error %v", err)
	}
}

type recordingComposer struct {
	mu       sync.Mutex
	requests []compose.Request
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func (r *recordingComposer) Compose(_ context.Context, req compose.Request) compose.Result {
	n := atomic.AddInt32(&r.inFlight, 1)
	for {
		m := atomic.LoadInt32(&r.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&r.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(r.delay)
	atomic.AddInt32(&r.inFlight, -1)

	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return compose.Result{Success: true, Topic: req.Topic, FileName: "meme.png", FilePath: "memes/meme.png", TopText: "t", BottomText: "b"}
}

// TestRunBatch_RespectsConcurrencyAndOrder checks the limit on parallel compositions and that results keep sample order.
func TestRunBatch_RespectsConcurrencyAndOrder(t *testing.T) {
	rc := &recordingComposer{delay: 20 * time.Millisecond}
	results, err := runBatch(context.Background(), rc, sampleTopics, 3, 0)
	if err != nil {
		t.Fatalf("runBatch error: %v", err)
	}
	if len(rc.requests) != len(sampleTopics) {
		t.Fatalf("compositions: got %d want %d", len(rc.requests), len(sampleTopics))
	}
	if got := atomic.LoadInt32(&rc.maxSeen); got > 3 {
		t.Fatalf("max concurrent compositions %d exceeds limit 3", got)
	}
	for i, r := range results {
		if r.Topic != sampleTopics[i].Topic {
			t.Fatalf("result %d: topic %q want %q", i, r.Topic, sampleTopics[i].Topic)
		}
	}

	var buf bytes.Buffer
	printBatchSummary(&buf, results)
	if !strings.Contains(buf.String(), "Generated: 10") {
		t.Fatalf("summary:\n%s", buf.String())
	}
}

func TestRunBatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := &recordingComposer{}
	_, err := runBatch(ctx, rc, sampleTopics, 2, time.Hour)
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if len(rc.requests) != 0 {
		t.Fatalf("compositions started after cancel: %d", len(rc.requests))
	}
}

// TestRunInteractive_Flows drives the menu through an example pick, a custom topic and a random pick.
func TestRunInteractive_Flows(t *testing.T) {
	input := strings.Join([]string{
		"3", "2", "y", // Corporate & Work Life, second example
		"9", "Chai breaks", "office", "yes", // custom topic with context
		"0", "n", // random selection
	}, "\n") + "\n"

	rc := &recordingComposer{}
	var out bytes.Buffer
	err := runInteractive(context.Background(), strings.NewReader(input), &out, rc, func(n int) int { return n - 1 })
	if err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}

	want := []compose.Request{
		{Topic: "Companies calling employees family then firing during recession", Context: "corporate & work life"},
		{Topic: "Chai breaks", Context: "office"},
		{Topic: "People who become experts after watching one YouTube video", Context: "current trends & viral culture"},
	}
	if len(rc.requests) != len(want) {
		t.Fatalf("requests: got %+v", rc.requests)
	}
	for i := range want {
		if rc.requests[i] != want[i] {
			t.Fatalf("request %d: got %+v want %+v", i, rc.requests[i], want[i])
		}
	}
	if !strings.Contains(out.String(), "Bye!") || !strings.Contains(out.String(), "Meme saved: memes/meme.png") {
		t.Fatalf("unexpected transcript:\n%s", out.String())
	}
}

func TestRunInteractive_InvalidInputAndEOF(t *testing.T) {
	// Invalid category, then a valid one with an invalid topic choice, then end of input.
	input := "abc\n42\n1\nzzz\n"
	rc := &recordingComposer{}
	var out bytes.Buffer
	if err := runInteractive(context.Background(), strings.NewReader(input), &out, rc, nil); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}
	if strings.Count(out.String(), "Invalid choice, try again.") != 2 {
		t.Fatalf("expected two invalid choices:\n%s", out.String())
	}
	if len(rc.requests) != 1 || rc.requests[0].Topic != "LinkedIn influencers posting cringe motivation" {
		t.Fatalf("requests: %+v", rc.requests)
	}
}
