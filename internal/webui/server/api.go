package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"replctl/internal/code"
	"replctl/internal/output"
	"replctl/internal/profiler"
	"replctl/internal/screen"
	"replctl/internal/session"
	"replctl/internal/system"
)

const maxBody = 4 << 20

type runRequest struct {
	Code       string `json:"code"`
	Autoreload bool   `json:"autoreload"`
}

type runResponse struct {
	ID        string                    `json:"id"`
	Output    string                    `json:"output"`
	Rendered  string                    `json:"rendered"`
	Variables map[string]output.Binding `json:"variables,omitempty"`
	Error     string                    `json:"error,omitempty"`
	ErrorLine string                    `json:"error_line,omitempty"`
}

// run executes one request against the session. Runs are serialized by the
// session itself.
func (s *Server) run(ctx context.Context, req runRequest) (runResponse, int) {
	resp := runResponse{ID: uuid.NewString()}
	system.Logger.Info("run", "id", resp.ID, "lines", strings.Count(req.Code, "\n")+1, "autoreload", req.Autoreload)
	res, err := s.Session.Run(ctx, req.Code, session.RunOptions{Autoreload: req.Autoreload})
	if err != nil {
		return s.failed(resp, err)
	}
	resp.Output = res.Output
	resp.Rendered = res.Rendered
	resp.Variables = res.Variables
	return resp, http.StatusOK
}

func (s *Server) failed(resp runResponse, err error) (runResponse, int) {
	resp.Error = err.Error()
	var re *session.ReplError
	switch {
	case errors.As(err, &re):
		resp.ErrorLine = re.Line
		resp.Output = re.Output
		return resp, http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrCrashed):
		system.Logger.Error("repl crashed", "id", resp.ID, "err", err)
		return resp, http.StatusBadGateway
	case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrOutOfSync):
		return resp, http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resp, http.StatusRequestTimeout
	}
	return resp, http.StatusInternalServerError
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errJSON(err))
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, errJSON(errors.New("code is required")))
		return
	}
	resp, status := s.run(r.Context(), req)
	writeJSON(w, status, resp)
}

type profileRequest struct {
	Code       string `json:"code"`
	Function   string `json:"function"`
	Source     string `json:"source"`
	Autoreload bool   `json:"autoreload"`
}

type profileResponse struct {
	runResponse
	Report *profiler.Report `json:"report,omitempty"`
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errJSON(err))
		return
	}
	if req.Function == "" || req.Source == "" {
		writeJSON(w, http.StatusBadRequest, errJSON(errors.New("function and source are required")))
		return
	}
	resp := profileResponse{runResponse: runResponse{ID: uuid.NewString()}}
	system.Logger.Info("profile", "id", resp.ID, "function", req.Function, "source", req.Source)
	res, rep, err := s.Session.LineProfile(r.Context(), req.Code, req.Function, req.Source, session.RunOptions{Autoreload: req.Autoreload})
	if res != nil {
		resp.Output = res.Output
		resp.Rendered = res.Rendered
		resp.Variables = res.Variables
	}
	if err != nil {
		if errors.Is(err, code.ErrFunctionNotFound) || errors.Is(err, profiler.ErrEmptyBody) || errors.Is(err, profiler.ErrSingleLine) {
			writeJSON(w, http.StatusBadRequest, errJSON(err))
			return
		}
		rr, status := s.failed(resp.runResponse, err)
		if errors.Is(err, profiler.ErrNoReport) {
			status = http.StatusUnprocessableEntity
		}
		resp.runResponse = rr
		writeJSON(w, status, resp)
		return
	}
	resp.Report = &rep
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) varsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Variables().All())
}

// varGetHandler returns the recorded binding. With ?decode=1 the value is
// fetched from the REPL as JSON.
func (s *Server) varGetHandler(w http.ResponseWriter, r *http.Request, name string) {
	vars := s.Session.Variables()
	if r.URL.Query().Get("decode") == "" {
		b, ok := vars.Lookup(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, errJSON(fmt.Errorf("variable %s not found", name)))
			return
		}
		writeJSON(w, http.StatusOK, b)
		return
	}
	var v any
	if err := vars.Get(r.Context(), name, &v); err != nil {
		_, status := s.failed(runResponse{}, err)
		writeJSON(w, status, errJSON(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "value": v})
}

type setRequest struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) varPutHandler(w http.ResponseWriter, r *http.Request, name string) {
	var req setRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errJSON(err))
		return
	}
	if req.Type == "" || len(req.Value) == 0 {
		writeJSON(w, http.StatusBadRequest, errJSON(errors.New("type and value are required")))
		return
	}
	vars := s.Session.Variables()
	if err := vars.Set(r.Context(), name, req.Type, req.Value); err != nil {
		_, status := s.failed(runResponse{}, err)
		writeJSON(w, status, errJSON(err))
		return
	}
	b, _ := vars.Lookup(name)
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Path string `json:"path"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errJSON(err))
			return
		}
		if err := s.Session.AddReloadFile(req.Path); err != nil {
			writeJSON(w, http.StatusBadRequest, errJSON(err))
			return
		}
	case http.MethodDelete:
		s.Session.ClearReloadFiles()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": nonNil(s.Session.ReloadFiles())})
}

type cleanResponse struct {
	Text      string                    `json:"text"`
	Error     string                    `json:"error,omitempty"`
	Variables map[string]output.Binding `json:"variables"`
}

// cleanHandler interprets raw REPL output posted as the request body.
func cleanHandler(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errJSON(err))
		return
	}
	text := screen.Clean(string(b))
	resp := cleanResponse{Text: text, Variables: output.FindVariables(text)}
	if line, ok := output.SearchForError(text); ok {
		resp.Error = line
	}
	writeJSON(w, http.StatusOK, resp)
}

type blockJSON struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

func blocksHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errJSON(err))
		return
	}
	blocks := code.Extract(strings.Split(req.Code, "\n"))
	out := make([]blockJSON, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockJSON{StartLine: b.StartLine, EndLine: b.EndLine, Text: b.Text()})
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err, ok := v.(error); ok {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func errJSON(err error) map[string]string { return map[string]string{"error": err.Error()} }
