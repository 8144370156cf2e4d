package tables

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// HTTP reads rows from an endpoint that returns a JSON array of flat
// objects. The body is fetched and decoded per Select; row IDs are
// 1-based ordinals. Numbers decode to int64 when integral, float64
// otherwise.
type HTTP struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTP table.
type HTTPOption func(*HTTP)

// HTTPWithClient substitutes the default client, for timeouts or custom
// transports.
func HTTPWithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// NewHTTP returns a table over the JSON array served at url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{url: url, client: http.DefaultClient}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	resp, err := h.client.Get(h.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", h.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", h.url, resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var objects []map[string]interface{}
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", h.url, err)
	}

	items := make([]engine.Item, len(objects))
	for i, obj := range objects {
		for k, v := range obj {
			if n, ok := v.(json.Number); ok {
				obj[k] = numberValue(n)
			}
		}
		items[i] = engine.Row{ID: int64(i + 1), Values: obj}
	}
	return engine.NewSliceIterator(items...), nil
}

// numberValue keeps integral JSON numbers int64 and the rest float64.
func numberValue(n json.Number) interface{} {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
