package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/suggest"
)

var (
	orderingParam = "ordering"
	searchParam   = "q"
	limitParam    = "limit"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
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
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// SuggestQuery is the query of an autocomplete endpoint: `?q=<text>&limit=<n>`.
type SuggestQuery struct {
	Query string
	Limit int
}

func (sq *SuggestQuery) Bind(ctx echo.Context) {
	sq.Query = core.CleanString(ctx.QueryParam(searchParam))
	if limit, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && limit > 0 {
		sq.Limit = limit
	} else {
		sq.Limit = suggest.DefaultLimit
	}
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)
