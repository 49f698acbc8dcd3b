package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zawadi/chekechea/core"
)

var (
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
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

type Paging struct {
	Paging core.DBPaging
}

func (p *Paging) Bind(ctx echo.Context) {
	if limit, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && limit > 0 {
		p.Paging.Limit = limit
	}
	if offset, err := strconv.Atoi(ctx.QueryParam(offsetParam)); err == nil && offset > 0 {
		p.Paging.Offset = offset
	}
}
