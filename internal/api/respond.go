package api

import (
	"net/http"
	"strconv"

	"github.com/Julianb233/better-together-live-sub001/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError переводит ошибку в HTTP-ответ. Внутренние ошибки
// логируются с request id и наружу уходят без деталей.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	h.respondJSON(w, status, errorResponse{Error: apperr.Message(err)})
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidArgument("invalid request body")
	}
	if err := h.validate.Struct(v); err != nil {
		return apperr.InvalidArgument("validation failed: " + err.Error())
	}
	return nil
}

// queryInt разбирает целочисленный параметр строки запроса;
// отсутствие дает def, мусор — ошибку 400.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid " + name + " parameter")
	}
	return n, nil
}
