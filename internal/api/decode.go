package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/api/validate"
	"github.com/mycelian/nurture-tracker/internal/model"
)

const maxBodyBytes = 8 << 20

// decodeBody reads a JSON body into dst and validates its struct tags.
// On failure it writes the response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respond.WriteBadRequest(w, "request body is required")
			return false
		}
		respond.WriteBadRequest(w, "invalid json: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respond.WriteServiceError(w, err)
		return false
	}
	return true
}

// intVar parses a numeric path variable.
func intVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", model.ErrValidation, name, raw)
	}
	return n, nil
}
