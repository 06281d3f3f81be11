package field

// Record maps field names to values. A key present with a nil value is an
// explicit absent value.
type Record map[Name]interface{}

// Rating is the feedback value: a rating/review pair. Either half may be absent.
type Rating struct {
	Rating *float64 `json:"rating"`
	Review *int     `json:"review"`
}

func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func (r Record) String(n Name) string {
	s, _ := r[n].(string)
	return s
}

func (r Record) Float(n Name) (float64, bool) {
	f, ok := r[n].(float64)
	return f, ok
}

// Project keeps only the given fields. Fields never extracted become absent.
func (r Record) Project(fields []Name) Record {
	p := make(Record, len(fields))
	for _, n := range fields {
		p[n] = r[n]
	}
	return p
}
