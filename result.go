package cql

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Result is a compiled query.
type Result struct {
	// MainQuery is the backend query string, sent as q.
	MainQuery string
	// NestedQueries are sub-queries referenced from the other queries; the first one is
	// sent as q1, the second as q2 and so on.
	NestedQueries []string
	// FilterQueries are additional constraints, each sent as one fq.
	FilterQueries []string
}

// NestedParam returns the parameter name of the i-th nested query.
func NestedParam(i int) string {
	return "q" + strconv.Itoa(i+1)
}

// Params returns the backend request parameters of the result.
func (r *Result) Params() url.Values {
	v := url.Values{}
	v.Set("q", r.MainQuery)
	for i, q := range r.NestedQueries {
		v.Set(NestedParam(i), q)
	}
	for _, fq := range r.FilterQueries {
		v.Add("fq", fq)
	}
	return v
}

type resultJSON struct {
	Q      string            `json:"q"`
	Nested map[string]string `json:"nested,omitempty"`
	FQ     []string          `json:"fq,omitempty"`
}

// MarshalJSON encodes the result as {"q": ..., "nested": {"q1": ...}, "fq": [...]}.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Q: r.MainQuery, FQ: r.FilterQueries}
	if len(r.NestedQueries) > 0 {
		out.Nested = make(map[string]string, len(r.NestedQueries))
		for i, q := range r.NestedQueries {
			out.Nested[NestedParam(i)] = q
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{MainQuery: in.Q, FilterQueries: in.FQ}
	for i := 0; i < len(in.Nested); i++ {
		q, ok := in.Nested[NestedParam(i)]
		if !ok {
			break
		}
		r.NestedQueries = append(r.NestedQueries, q)
	}
	return nil
}

func (r *Result) clone() *Result {
	c := *r
	c.NestedQueries = append([]string(nil), r.NestedQueries...)
	c.FilterQueries = append([]string(nil), r.FilterQueries...)
	return &c
}
