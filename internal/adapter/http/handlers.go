package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type ingestResponse struct {
	Status string         `json:"status"`
	Entry  domain.Reading `json:"entry"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func handleIngest(ingestor Ingestor, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := readAmount(w, r)
		if err != nil {
			logger.Debug("unreadable ingest body", "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount required"})
			return
		}

		entry, err := ingestor.Ingest(r.Context(), amount)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount required"})
		case err != nil:
			logger.Error("ingest failed", "error", err, "request_id", requestID(r))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, ingestResponse{Status: "logged", Entry: entry})
		}
	}
}

// readAmount extracts the amount field from a JSON or form-encoded body.
// A missing field yields a nil amount, which the ingestor rejects.
func readAmount(w http.ResponseWriter, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if vals, ok := r.PostForm["amount"]; ok && len(vals) > 0 {
			return vals[0], nil
		}
		return nil, nil
	}

	var body struct {
		Amount any `json:"amount"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return body.Amount, nil
}

func handleDailyTotal(totals TotalReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")
		if _, err := domain.ParseDateKey(date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}

		dt, err := totals.DailyTotal(r.Context(), date)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no daily total for " + date})
		case err != nil:
			logger.Error("daily total lookup failed", "error", err, "date", date, "request_id", requestID(r))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, dt)
		}
	}
}

// writeJSON encodes v before writing the status so an unencodable value
// (e.g. a NaN total) yields a 500 with a body instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck // client may have gone away
}
