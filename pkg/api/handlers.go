package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/extract"
	"github.com/pseudomuto/chsync/pkg/market"
	"github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/pseudomuto/chsync/pkg/schema"
)

type (
	// TablesRequest asks for the tables referenced by a query.
	TablesRequest struct {
		SQL     string   `json:"sql"`
		Markets []string `json:"markets,omitempty"`
	}

	// TablesResponse lists the referenced tables, templated names expanded.
	TablesResponse struct {
		Tables []string `json:"tables"`
	}

	// RewriteRequest retargets a CREATE TABLE statement without touching a
	// server.
	RewriteRequest struct {
		DDL     string `json:"ddl"`
		Source  string `json:"source"`
		Target  string `json:"target"`
		Cluster string `json:"cluster,omitempty"`
	}

	// DDLResponse carries a statement and the warnings raised rewriting it.
	DDLResponse struct {
		DDL      string        `json:"ddl"`
		Warnings []ddl.Warning `json:"warnings,omitempty"`
	}

	// ErrorResponse is the body of every non-2xx answer.
	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	var req TablesRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	markets := req.Markets
	if len(markets) == 0 {
		markets = s.markets
	}

	names := schema.Strings(extract.Tables(req.SQL))
	if len(markets) > 0 {
		names = market.ExpandAll(names, markets)
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, TablesResponse{Tables: names})
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req RewriteRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if strings.TrimSpace(req.DDL) == "" {
		writeError(w, http.StatusBadRequest, "ddl is required")
		return
	}

	source, err := schema.ParseQualifiedName(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid source").Error())
		return
	}
	target, err := schema.ParseQualifiedName(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid target").Error())
		return
	}

	res, err := ddl.Rewrite(ddl.NewDocument(req.DDL), source, target, req.Cluster)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DDLResponse{DDL: res.Document.String(), Warnings: res.Warnings})
}

// handleTableDDL returns the source statement for {name}. With a target query
// parameter the statement is rewritten for it, moving it to the cluster
// parameter when one is given.
func (s *Server) handleTableDDL(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "no source server configured")
		return
	}

	name, err := schema.ParseQualifiedName(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := s.syncer.Migrator().Source().FetchDDL(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := DDLResponse{DDL: doc.String()}

	if t := r.URL.Query().Get("target"); t != "" {
		target, err := schema.ParseQualifiedName(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid target").Error())
			return
		}

		res, err := ddl.Rewrite(doc, name, target, r.URL.Query().Get("cluster"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp = DDLResponse{DDL: res.Document.String(), Warnings: res.Warnings}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleMigrate runs one job. Structure-only jobs answer with the migration
// result; jobs with copy_data answer with the full sync result. Both are
// returned on failure too, with a status matching the error.
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "no servers configured")
		return
	}

	var job migrator.Job
	if !decodeBody(w, r, &job, true) {
		return
	}

	var (
		body any
		err  error
	)
	if job.CopyData {
		body, err = s.syncer.Sync(r.Context(), job)
	} else {
		body, err = s.syncer.Migrate(r.Context(), job.Request)
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		s.log.Warn("migration failed", "source", job.Source.String(), "target", job.Target.String(), "error", err)
	}

	writeJSON(w, status, body)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}

	writeError(w, status, err.Error())
}

// statusFor maps the schema error kinds onto HTTP statuses. A bad name wins
// over not found, since FetchDDL reports an unparseable name as both.
func statusFor(err error) int {
	switch {
	case schema.IsFormat(err):
		return http.StatusBadRequest
	case schema.IsNotFound(err):
		return http.StatusNotFound
	case schema.IsTimeout(err):
		return http.StatusGatewayTimeout
	}

	if _, ok := schema.AsRemote(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON body of at most consts.MaxRequestBody bytes into v.
// On failure it writes the error response and returns false. With detail set,
// the decode error is included in the message.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, detail bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, consts.MaxRequestBody)).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case detail:
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body").Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid request body")
	}

	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
