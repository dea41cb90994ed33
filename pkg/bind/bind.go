// Package bind decodes a JSON request body into a struct and validates it.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/pkg/validate"
)

const defaultMaxBody = 1 << 20

// JSON decodes r.Body into dest, capped at MAX_BODY_BYTES, and validates it.
// A malformed body yields (nil, err); rule failures yield (errs, nil).
func JSON(r *http.Request, dest interface{}) (map[string]string, error) {
	limit := int64(config.Int("MAX_BODY_BYTES", defaultMaxBody))
	if limit <= 0 {
		limit = defaultMaxBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is empty")
		default:
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
