package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
)

var orderingParam = "ordering"

type (
	OrderingField struct {
		Field     string
		Ascending bool
	}

	Ordering struct {
		Orderings []OrderingField
	}
)

// Bind reads `?ordering=-size,name` style query params. Fields not in allowed are dropped.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !contains(allowed, field) {
			continue
		}
		ord.Orderings = append(ord.Orderings, OrderingField{Field: field, Ascending: !descending})
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
