package condition

import (
	"strings"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

// ResolveVariables replaces "$name" string values with entries from vars.
// "$now" always resolves to the current time. The bool result reports whether
// any clause referenced a caller variable, which makes the result user
// specific.
func ResolveVariables(filters []models.Filter, vars map[string]any) ([]models.Filter, bool, error) {
	out := make([]models.Filter, len(filters))
	scoped := false

	for i, f := range filters {
		out[i] = f
		s, ok := f.Value.(string)
		if !ok || !strings.HasPrefix(s, "$") {
			continue
		}

		key := strings.TrimPrefix(s, "$")
		if key == "now" {
			out[i].Value = time.Now().UTC()
			continue
		}
		resolved, ok := vars[key]
		if !ok {
			return nil, false, errs.InvalidValue(f.Field, "unknown variable "+s+" in filter on "+f.Field)
		}
		out[i].Value = resolved
		scoped = true
	}
	return out, scoped, nil
}
