package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gopivot/adapters/excel"
	"gopivot/app"
	"gopivot/internal/errors"
	session "gopivot/ui/middleware"
)

// Query parameters of a cube request.
const (
	paramRow            = "row"
	paramColumn         = "column"
	paramFilter         = "filter"
	paramFilterZero     = "fz"
	paramFilterEmpty    = "fe"
	paramShowValueTypes = "svt"
	paramFormat         = "format"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleCubeJSON(w http.ResponseWriter, r *http.Request) {
	view, err := a.render(r, "json")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *App) handleCubePage(w http.ResponseWriter, r *http.Request) {
	view, err := a.render(r, "table")
	if err != nil {
		status := statusFor(err)
		a.renderTemplate(w, status, "error.html", map[string]interface{}{
			"Status":  status,
			"Message": errorMessage(err),
		})
		return
	}
	a.renderTemplate(w, http.StatusOK, "cube.html", view)
}

func (a *App) handleCubeExport(w http.ResponseWriter, r *http.Request) {
	format, err := excel.ParseFormat(r.URL.Query().Get(paramFormat))
	if err != nil {
		writeError(w, errors.InvalidInput(err.Error()))
		return
	}
	view, err := a.render(r, string(format))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.exporter.Write(&buf, view, format); err != nil {
		writeError(w, errors.Wrapf(err, "failed to export %s", view.Cube))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.Cube+"."+string(format)))
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[Export] Failed to send %s: %v", view.Cube, err)
	}
}

func (a *App) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	env, cube := chi.URLParam(r, "env"), chi.URLParam(r, "cube")
	if err := a.cubes.Invalidate(env, cube); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// render parses the request and renders the addressed cube.
func (a *App) render(r *http.Request, view string) (*app.CubeView, error) {
	req, err := parseCubeRequest(r)
	if err != nil {
		return nil, err
	}
	req.View = view
	return a.cubes.Render(r.Context(), req)
}

func parseCubeRequest(r *http.Request) (app.CubeRequest, error) {
	q := r.URL.Query()
	req := app.CubeRequest{
		Env:       chi.URLParam(r, "env"),
		Locale:    chi.URLParam(r, "locale"),
		Cube:      chi.URLParam(r, "cube"),
		Host:      r.Host,
		IPAddr:    r.RemoteAddr,
		SessionID: session.SessionID(r.Context()),
	}

	for _, s := range q[paramRow] {
		spec, err := app.ParseHeaderSpec(s)
		if err != nil {
			return req, err
		}
		req.Rows = append(req.Rows, spec)
	}
	for _, s := range q[paramColumn] {
		spec, err := app.ParseHeaderSpec(s)
		if err != nil {
			return req, err
		}
		req.Columns = append(req.Columns, spec)
	}
	for _, s := range q[paramFilter] {
		refs, err := app.ParseNodeRefs(s)
		if err != nil {
			return req, err
		}
		req.Filters = append(req.Filters, refs...)
	}

	var err error
	if req.FilterZero, err = flag(q.Get(paramFilterZero)); err != nil {
		return req, err
	}
	if req.FilterEmpty, err = flag(q.Get(paramFilterEmpty)); err != nil {
		return req, err
	}
	if req.ShowValueTypes, err = flag(q.Get(paramShowValueTypes)); err != nil {
		return req, err
	}
	return req, nil
}

func flag(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.InvalidInput(fmt.Sprintf("invalid flag value %q", v))
	}
	return b, nil
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound, errors.CodeCubeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides the details of server side failures from clients.
func errorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": errorMessage(err),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}
