package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, status, e.Bytes())
}

func writeUnauthorized(w http.ResponseWriter) {
	writeMessage(w, http.StatusUnauthorized, "unauthorized")
}

// writeRejected answers 400 with the error and the echoed submission, or
// null when there is nothing valid to echo.
func writeRejected(w http.ResponseWriter, err error, submission []byte) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("message", func(e *jx.Encoder) { e.Str(err.Error()) })
		e.Field("submission", func(e *jx.Encoder) {
			if len(submission) == 0 {
				e.Null()
				return
			}
			e.Raw(submission)
		})
	})
	writeJSON(w, http.StatusBadRequest, e.Bytes())
}
