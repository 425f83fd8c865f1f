package handlers

import (
	"encoding/json"
	"net/http"

	"taskFlow/internal/logger"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	if err := json.NewEncoder(w).Encode(storage); err != nil {
		logger.Warn("HTTP: Не удалось записать ответ")
	}
}

// responseSuccess добавляет к ответу "success": true.
func responseSuccess(w http.ResponseWriter, code int, payload ...Payload) {
	responseWithJSON(w, code, append([]Payload{toPayload("success", true)}, payload...)...)
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithJSON(w, code,
		toPayload("success", false),
		toPayload("message", message))
}
