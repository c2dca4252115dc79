// Package httpapi serves the calendar over HTTP and API Gateway.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/guillem8cbii/basquet/internal/pipeline"
)

// DefaultFilename is the attachment name when the pipeline does not set one.
const DefaultFilename = "xirivella-partidos.ics"

// Generator produces a calendar. *pipeline.Pipeline and *pipeline.Live implement it.
type Generator interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Responder writes one response. It is implemented for net/http, for API
// Gateway and by test doubles.
type Responder interface {
	Respond(status int, header http.Header, body []byte) error
}

type Handler struct {
	Gen Generator
	Log zerolog.Logger
}

func NewHandler(gen Generator, logger zerolog.Logger) *Handler {
	return &Handler{Gen: gen, Log: logger}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Debug   string `json:"debug"`
}

// Handle answers one request. CORS headers are set on every answer; OPTIONS
// returns 200 without generating anything.
func (h *Handler) Handle(ctx context.Context, method string, out Responder) error {
	header := http.Header{}
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")

	switch method {
	case http.MethodOptions:
		return out.Respond(http.StatusOK, header, nil)
	case http.MethodGet, http.MethodPost, http.MethodHead:
	default:
		header.Set("Allow", "GET, POST, OPTIONS")
		return h.respondJSON(out, http.StatusMethodNotAllowed, header, errorBody{
			Error: "Método no permitido",
			Debug: fmt.Sprintf("Use GET, POST u OPTIONS, no %s", method),
		})
	}

	log := h.Log
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		log = *l
	}

	res, err := h.Gen.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoMatches):
		log.Warn().Str("team", res.Team).Msg("no matches found")
		return h.respondJSON(out, http.StatusNotFound, header, errorBody{
			Error: fmt.Sprintf("No se encontraron partidos de %s", res.Team),
			Debug: fmt.Sprintf("Verifique que los datos contengan partidos con %q en el nombre del equipo", res.Team),
		})
	case err != nil:
		log.Error().Err(err).Msg("calendar generation failed")
		return h.respondJSON(out, http.StatusInternalServerError, header, errorBody{
			Error:   "Error al procesar los datos",
			Message: err.Error(),
			Debug:   "Verifique la URL de la API y el formato de los datos",
		})
	}

	name := res.Filename
	if name == "" {
		name = DefaultFilename
	}
	header.Set("Content-Type", "text/calendar; charset=utf-8")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	log.Info().Int("events", res.Document.Events).Int("skipped", len(res.Document.Skipped)).Msg("calendar served")

	if method == http.MethodHead {
		return out.Respond(http.StatusOK, header, nil)
	}
	return out.Respond(http.StatusOK, header, []byte(res.Document.Text))
}

func (h *Handler) respondJSON(out Responder, status int, header http.Header, body errorBody) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	header.Set("Content-Type", "application/json; charset=utf-8")
	return out.Respond(status, header, b)
}

// writerResponder adapts an http.ResponseWriter.
type writerResponder struct {
	w http.ResponseWriter
}

func (r writerResponder) Respond(status int, header http.Header, body []byte) error {
	for k, vs := range header {
		r.w.Header()[k] = vs
	}
	r.w.WriteHeader(status)
	if len(body) == 0 {
		return nil
	}
	_, err := r.w.Write(body)
	return err
}

// ServeHTTP lets the handler be mounted on any router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Handle(r.Context(), r.Method, writerResponder{w: w}); err != nil {
		h.Log.Debug().Err(err).Msg("write response")
	}
}
