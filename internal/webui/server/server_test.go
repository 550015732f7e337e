package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"replctl/internal/output"
	"replctl/internal/session"
	tu "replctl/internal/testutil"
	appver "replctl/internal/version"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var pathRe = regexp.MustCompile(`"([^"]+\.json)"`)

// reply plays the REPL for the snippets used below.
func reply(in string) string {
	switch {
	case strings.HasPrefix(in, "var point"):
		return "point: Point = {\r\n  x = 1\r\n}\r\n"
	case strings.HasPrefix(in, "foo()"):
		return "error: repl.swift:1:1: cannot find 'foo' in scope\r\n"
	case strings.Contains(in, "_serializeObject(point"):
		m := pathRe.FindStringSubmatch(in)
		_ = os.WriteFile(m[1], []byte(`{"x": 1}`), 0o600)
	case strings.HasPrefix(in, "var items"):
		return "items: [Int] = 2 values {\r\n  [0] = 1\r\n  [1] = 2\r\n}\r\n"
	}
	return ""
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	n := 1
	fake := tu.NewFakeREPL(func(in string) string {
		if in == ":quit\n" {
			return ""
		}
		n++
		return tu.Echo(in, n) + reply(in) + tu.Prompt(n)
	})
	s, err := session.NewWithProcess(context.Background(), fake, session.Options{
		ReadTimeout: 10 * time.Millisecond,
		Render:      output.RenderOptions{HideInputs: true},
	})
	if err != nil {
		t.Fatalf("NewWithProcess error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &Server{Session: s}
}

func do(t *testing.T, h http.Handler, method, path, body string, dst any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if dst != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestHealthAndVersion(t *testing.T) {
	h := (&Server{}).Handler()
	var m map[string]string
	if code := do(t, h, http.MethodGet, "/api/health", "", &m); code != http.StatusOK || m["status"] != "ok" {
		t.Fatalf("health: %d %v", code, m)
	}
	if code := do(t, h, http.MethodGet, "/api/version", "", &m); code != http.StatusOK || m["version"] != appver.AppVersion {
		t.Fatalf("version: %d %v", code, m)
	}
	if code := do(t, h, http.MethodGet, "/api/nope", "", &m); code != http.StatusNotFound {
		t.Fatalf("unknown api route: %d", code)
	}
}

func TestRunAndVars(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	var resp runResponse
	code := do(t, h, http.MethodPost, "/api/run", `{"code":"var point = Point(x: 1)"}`, &resp)
	if code != http.StatusOK {
		t.Fatalf("run: %d %+v", code, resp)
	}
	if resp.ID == "" || resp.Rendered != "point: Point = {\n  x = 1\n}" {
		t.Fatalf("unexpected run response: %+v", resp)
	}

	var list []output.Binding
	do(t, h, http.MethodGet, "/api/vars", "", &list)
	want := []output.Binding{{Name: "point", Type: "Point", Value: "{\n  x = 1\n}"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("vars (-want +got):\n%s", diff)
	}

	var b output.Binding
	if code := do(t, h, http.MethodGet, "/api/vars/point", "", &b); code != http.StatusOK || b.Type != "Point" {
		t.Fatalf("var lookup: %d %+v", code, b)
	}
	var e map[string]string
	if code := do(t, h, http.MethodGet, "/api/vars/missing", "", &e); code != http.StatusNotFound {
		t.Fatalf("missing var: %d", code)
	}

	var decoded struct {
		Name  string         `json:"name"`
		Value map[string]any `json:"value"`
	}
	if code := do(t, h, http.MethodGet, "/api/vars/point?decode=1", "", &decoded); code != http.StatusOK {
		t.Fatalf("decode var: %d", code)
	}
	if decoded.Value["x"] != float64(1) {
		t.Fatalf("unexpected decoded value: %+v", decoded)
	}

	if code := do(t, h, http.MethodPut, "/api/vars/items", `{"type":"[Int]","value":[1,2]}`, &b); code != http.StatusOK {
		t.Fatalf("set var: %d", code)
	}
	if b.Name != "items" || b.Type != "[Int]" {
		t.Fatalf("unexpected set binding: %+v", b)
	}
	if code := do(t, h, http.MethodPut, "/api/vars/items", `{"type":"[Int]"}`, &e); code != http.StatusBadRequest {
		t.Fatalf("set without value: %d", code)
	}
}

func TestRun_Errors(t *testing.T) {
	h := newTestServer(t).Handler()
	var resp runResponse
	if code := do(t, h, http.MethodPost, "/api/run", `{"code":"foo()"}`, &resp); code != http.StatusUnprocessableEntity {
		t.Fatalf("repl error status: %d", code)
	}
	if resp.ErrorLine != "error: repl.swift:1:1: cannot find 'foo' in scope" {
		t.Fatalf("unexpected error line: %q", resp.ErrorLine)
	}
	var e map[string]string
	if code := do(t, h, http.MethodPost, "/api/run", `{"code":"  "}`, &e); code != http.StatusBadRequest {
		t.Fatalf("empty code status: %d", code)
	}
	if code := do(t, h, http.MethodPost, "/api/run", `{"snippet":"x"}`, &e); code != http.StatusBadRequest {
		t.Fatalf("unknown field status: %d", code)
	}
	if code := do(t, h, http.MethodPost, "/api/profile", `{"code":"work()"}`, &e); code != http.StatusBadRequest {
		t.Fatalf("profile without function: %d", code)
	}
}

func TestReload(t *testing.T) {
	h := newTestServer(t).Handler()
	src := filepath.Join(t.TempDir(), "a.swift")
	if err := os.WriteFile(src, []byte("struct A {}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	body, _ := json.Marshal(map[string]string{"path": src})

	var files map[string][]string
	if code := do(t, h, http.MethodPost, "/api/reload", string(body), &files); code != http.StatusOK {
		t.Fatalf("add reload: %d", code)
	}
	if diff := cmp.Diff([]string{src}, files["files"]); diff != "" {
		t.Fatalf("reload files (-want +got):\n%s", diff)
	}
	var e map[string]string
	if code := do(t, h, http.MethodPost, "/api/reload", `{"path":"/does/not/exist.swift"}`, &e); code != http.StatusBadRequest {
		t.Fatalf("missing reload file: %d", code)
	}
	do(t, h, http.MethodDelete, "/api/reload", "", &files)
	if len(files["files"]) != 0 {
		t.Fatalf("reload list not cleared: %v", files)
	}
}

func TestCleanAndBlocks(t *testing.T) {
	h := (&Server{}).Handler()

	var cr cleanResponse
	raw := "abc\x1b[1GX\r\nerror: boom\r\nn: Int = 3"
	if code := do(t, h, http.MethodPost, "/api/clean", raw, &cr); code != http.StatusOK {
		t.Fatalf("clean: %d", code)
	}
	if cr.Text != "Xbc\nerror: boom\nn: Int = 3" || cr.Error != "error: boom" {
		t.Fatalf("unexpected clean response: %+v", cr)
	}
	if cr.Variables["n"].Value != "3" {
		t.Fatalf("variables not extracted: %+v", cr.Variables)
	}

	var blocks []blockJSON
	body, _ := json.Marshal(map[string]string{"code": "let a = 1\nfunc f() {\n    print(a)\n}"})
	if code := do(t, h, http.MethodPost, "/api/blocks", string(body), &blocks); code != http.StatusOK {
		t.Fatalf("blocks: %d", code)
	}
	want := []blockJSON{
		{StartLine: 0, EndLine: 0, Text: "let a = 1"},
		{StartLine: 1, EndLine: 3, Text: "func f() {\n    print(a)\n}"},
	}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Fatalf("blocks (-want +got):\n%s", diff)
	}
}

func TestRunWebSocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for _, snippet := range []string{"var point = Point(x: 1)", "foo()"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(snippet)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var first, second runResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Error != "" || first.Variables["point"].Type != "Point" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if second.ErrorLine == "" {
		t.Fatalf("expected error result, got %+v", second)
	}
	if first.ID == second.ID {
		t.Fatalf("run ids should differ")
	}
}

func TestEmbeddedPage(t *testing.T) {
	h := (&Server{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("<title>replctl</title>")) {
		t.Fatalf("index not served: %d", rec.Code)
	}
}
