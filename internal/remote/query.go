package remote

import (
	"context"
	"net/http"
	"net/url"
)

// Query собирает фильтры PostgREST так же, как SQL-запрос собирается по частям
type Query struct {
	c      *Client
	table  string
	params url.Values
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, params: url.Values{}}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) Gte(column, value string) *Query {
	q.params.Add(column, "gte."+value)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

func (q *Query) Get(ctx context.Context, op, token string, out interface{}) error {
	return q.c.do(ctx, op, request{
		method: http.MethodGet,
		path:   q.path(),
		query:  q.params,
		token:  token,
	}, out)
}

// InsertSingle вставляет строку и запрашивает ее обратно одним объектом
func (q *Query) InsertSingle(ctx context.Context, op, token string, body, out interface{}) error {
	header := http.Header{}
	header.Set("Prefer", "return=representation")
	header.Set("Accept", "application/vnd.pgrst.object+json")
	return q.c.do(ctx, op, request{
		method: http.MethodPost,
		path:   q.path(),
		query:  q.params,
		token:  token,
		header: header,
		body:   body,
	}, out)
}

func (q *Query) Patch(ctx context.Context, op, token string, body interface{}) error {
	return q.c.do(ctx, op, request{
		method: http.MethodPatch,
		path:   q.path(),
		query:  q.params,
		token:  token,
		body:   body,
	}, nil)
}

func (q *Query) Delete(ctx context.Context, op, token string) error {
	return q.c.do(ctx, op, request{
		method: http.MethodDelete,
		path:   q.path(),
		query:  q.params,
		token:  token,
	}, nil)
}
