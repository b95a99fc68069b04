package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// QueryParams carries common list-endpoint paging parameters.
type QueryParams struct {
	PageNumber int
	PageSize   int
}

// FromContext reads page/page_size query parameters with sane bounds.
func FromContext(ctx echo.Context) QueryParams {
	page, err := strconv.Atoi(ctx.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(ctx.QueryParam("page_size"))
	if err != nil || size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	return QueryParams{PageNumber: page, PageSize: size}
}
