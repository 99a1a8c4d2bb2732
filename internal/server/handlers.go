package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/stateviz/pkg/buildinfo"
	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// contentTypes maps render formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// ExtractResponse is the body of POST /v1/extract.
type ExtractResponse struct {
	Machines []ExtractedMachine `json:"machines"`
}

// ExtractedMachine is one machine in an ExtractResponse.
type ExtractedMachine struct {
	Graph       *graph.DirectedGraph `json:"graph"`
	Unreachable []string             `json:"unreachable,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorBody describes a failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Module  string `json:"module,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	source, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.cfg.Options
	opts.Logger = s.logger.With("request_id", requestIDFrom(r.Context()))
	defs, err := s.runner.Extract(ctx, source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := ExtractResponse{Machines: make([]ExtractedMachine, len(defs))}
	for i, d := range defs {
		g := graph.FromMachine(d)
		resp.Machines[i] = ExtractedMachine{Graph: g, Unreachable: graph.Unreachable(g)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	source, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(ctx, source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(res.Machines) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeMachineNotFound, "script defines no machines"))
		return
	}

	mr := res.Machines[0]
	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Machine-ID", mr.Definition.ID)
	w.Header().Set("X-Machine-Count", strconv.Itoa(res.Extracted))
	if len(mr.Unreachable) > 0 {
		w.Header().Set("X-Unreachable-States", strings.Join(mr.Unreachable, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(mr.Artifacts[format])
}

// renderOptions reads the query parameters of a render request.
func (s *Server) renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.cfg.Options
	opts.Logger = s.logger.With("request_id", requestIDFrom(r.Context()))

	opts.Machine = q.Get("machine")
	if opts.Machine == "" {
		opts.Machine = "0"
	}
	if v := q.Get("active"); v != "" {
		opts.Active = strings.Split(v, ",")
	}
	if v := q.Get("rankdir"); v != "" {
		opts.RankDir = strings.ToUpper(v)
	}
	if v := q.Get("routing"); v != "" {
		routing, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid routing value %q", v)
		}
		opts.Routing = &routing
	}
	opts.Formats = []string{pipeline.FormatSVG}
	if v := q.Get("format"); v != "" {
		opts.Formats = []string{v}
	}
	return opts, opts.ValidateAndSetDefaults()
}

// readBody reads the script from the request body. The body is either the
// raw script or a JSON object {"source": "..."}.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return "", errTooLarge
		}
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
		}
		return req.Source, nil
	}
	return string(data), nil
}

// errTooLarge is returned for bodies over the configured limit.
var errTooLarge = errors.New(errors.ErrCodeInvalidInput, "request body too large")

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	if err == errTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	if stderrors.Is(err, context.Canceled) {
		return 499 // client closed request
	}
	switch errors.KindOf(err) {
	case errors.KindInput:
		return http.StatusBadRequest
	case errors.KindScript:
		return http.StatusUnprocessableEntity
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindTimeout:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	body := ErrorBody{Code: string(code), Message: message(err)}
	var me *errors.ModuleError
	if stderrors.As(err, &me) {
		body.Module = me.Module
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", requestIDFrom(r.Context()), "error", err)
		body.Message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: body, RequestID: requestIDFrom(r.Context())})
}

// message returns the user-facing text of err, including the cause of
// script failures so that callers can see the thrown exception.
func message(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Cause != nil && errors.IsScriptError(err) {
		return e.Message + ": " + e.Cause.Error()
	}
	return errors.UserMessage(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
