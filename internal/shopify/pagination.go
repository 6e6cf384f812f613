package shopify

import (
	"net/url"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

const (
	ParamCursor    = "cursor"
	ParamDirection = "direction"

	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

// Page selects a window of a connection. Exactly one of First or Last is set.
type Page struct {
	First       int
	Last        int
	StartCursor string
	EndCursor   string
}

// PaginationFromQuery reads ?cursor=&direction= the way the storefront's
// pagination links write them. Without a direction the page is forward.
func PaginationFromQuery(values url.Values, pageBy int) Page {
	cursor := values.Get(ParamCursor)
	if values.Get(ParamDirection) == DirectionPrevious {
		return Page{Last: pageBy, StartCursor: cursor}
	}
	return Page{First: pageBy, EndCursor: cursor}
}

func (p Page) vars() map[string]interface{} {
	v := map[string]interface{}{}
	if p.First > 0 {
		v["first"] = p.First
	}
	if p.Last > 0 {
		v["last"] = p.Last
	}
	if p.StartCursor != "" {
		v["startCursor"] = p.StartCursor
	}
	if p.EndCursor != "" {
		v["endCursor"] = p.EndCursor
	}
	return v
}

// NextURL links to the page after info, keeping the other query parameters
func NextURL(basePath string, values url.Values, info domain.PageInfo) string {
	return pageURL(basePath, values, info.EndCursor, DirectionNext)
}

// PreviousURL links to the page before info
func PreviousURL(basePath string, values url.Values, info domain.PageInfo) string {
	return pageURL(basePath, values, info.StartCursor, DirectionPrevious)
}

func pageURL(basePath string, values url.Values, cursor, direction string) string {
	q := url.Values{}
	for k, vs := range values {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(ParamCursor, cursor)
	q.Set(ParamDirection, direction)
	return basePath + "?" + q.Encode()
}
