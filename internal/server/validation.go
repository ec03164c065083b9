package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/memobloom/memobloom/internal/validation"
)

var errBadRequest = errors.New("bad request")

// validateStruct checks v's validate tags with the default messages.
func validateStruct(v any) error {
	return validation.Struct(v, nil)
}

// decode reads a JSON body into v. Unknown fields are ignored.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", errBadRequest)
	}
	return nil
}
