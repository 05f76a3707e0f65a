package handler

// RESPONSE HELPERS:
// Every handler writes through these functions, so status codes, content
// types and error shapes are decided in one place.
//
//	respond(w, r, http.StatusOK, body)    → JSON or XML, per the negotiated format
//	writeError(w, r, logger, err)         → maps apperror sentinels to HTTP
//
// ERROR SHAPES:
//
//	404 / 401 / 403  → empty body (401 adds WWW-Authenticate: Bearer)
//	400              → application/problem+json with field-keyed messages
//	500              → {"error":"internal_error","message":"An internal error occurred"}

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/middleware"
)

// maxBodyBytes bounds every request body the API decodes.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of a 500 response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProblemDetails is the RFC 9457 body of a 400 response.
type ProblemDetails struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors"`
}

// respond writes data in the format chosen by middleware.Negotiate.
// A nil data writes only the status.
func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if middleware.FormatFromContext(r.Context()) == middleware.FormatXML {
		writeXML(w, status, data)
		return
	}
	writeJSON(w, status, data)
}

// writeJSON sets headers, then status, then encodes the body: once the body
// starts, headers can no longer change.
func writeJSON(w http.ResponseWriter, status int, data any) {
	writeJSONAs(w, "application/json; charset=utf-8", status, data)
}

func writeJSONAs(w http.ResponseWriter, contentType string, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeXML encodes data as XML. A slice is wrapped in an ArrayOf<Element> root,
// since XML needs a single root element.
func writeXML(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)

	_, _ = io.WriteString(w, xml.Header)
	enc := xml.NewEncoder(w)
	if err := encodeXML(enc, data); err != nil {
		slog.Error("failed to encode XML response", slog.String("error", err.Error()))
		return
	}
	if err := enc.Flush(); err != nil {
		slog.Error("failed to flush XML response", slog.String("error", err.Error()))
	}
}

func encodeXML(enc *xml.Encoder, data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return enc.Encode(data)
	}

	root := xml.StartElement{Name: xml.Name{Local: "ArrayOf" + v.Type().Elem().Name()}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for i := range v.Len() {
		if err := enc.Encode(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(root.End())
}

// writeError maps an error to its HTTP response.
//
// errors.Is walks the wrap chain, so a service error such as
//
//	fmt.Errorf("getting city: %w", apperror.NotFound("city", "7"))
//
// still maps to 404. Anything unrecognized is logged with the request id and
// answered with a generic 500: raw error text can contain SQL or file paths.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		writeProblem(w, err)
	case errors.Is(err, apperror.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, apperror.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, apperror.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// writeProblem renders a validation failure. Problem bodies are always JSON.
func writeProblem(w http.ResponseWriter, err error) {
	fields := map[string][]string{}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case len(appErr.Fields) > 0:
			fields = appErr.Fields
		case appErr.Field != "":
			fields[appErr.Field] = []string{appErr.Message}
		default:
			fields[""] = []string{appErr.Message}
		}
	}

	writeJSONAs(w, "application/problem+json; charset=utf-8", http.StatusBadRequest, ProblemDetails{
		Type:   "https://tools.ietf.org/html/rfc9110#section-15.5.1",
		Title:  apperror.ValidationMessage,
		Status: http.StatusBadRequest,
		Errors: fields,
	})
}

// decodeBody reads a JSON or XML request body (by Content-Type) into v.
// Malformed input is a validation error keyed by "body".
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var err error
	if isXML(r.Header.Get("Content-Type")) {
		err = xml.NewDecoder(body).Decode(v)
	} else {
		err = json.NewDecoder(body).Decode(v)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "A non-empty request body is required.")
		}
		return apperror.ValidationFailed("body", "The request body is malformed: "+err.Error())
	}
	return nil
}

func isXML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/xml" || mediaType == "text/xml"
}

// idParam parses a positive int64 route parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("The value '%s' is not valid.", raw))
	}
	return id, nil
}
