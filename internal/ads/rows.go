package ads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// Rows is a forward-only, single-pass cursor over search results.
//
//	rows, err := client.Search(ctx, customerID, query)
//	if err != nil { ... }
//	defer rows.Close()
//	for rows.Next() {
//	    row := rows.Row()
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

type streamBatch struct {
	Results []json.RawMessage `json:"results"`
	Error   json.RawMessage   `json:"error"`
}

// streamRows decodes a searchStream response body one batch at a time.
type streamRows struct {
	body io.ReadCloser
	dec  *json.Decoder

	batch []json.RawMessage
	pos   int
	cur   Row

	started bool
	done    bool
	closed  bool
	err     error
}

func newStreamRows(body io.ReadCloser) *streamRows {
	return &streamRows{body: body, dec: json.NewDecoder(body)}
}

func (r *streamRows) Next() bool {
	if r.closed {
		if r.err == nil {
			r.err = ErrRowsClosed
		}
		return false
	}
	if r.err != nil || r.done {
		return false
	}

	for r.pos >= len(r.batch) {
		if !r.readBatch() {
			return false
		}
	}

	r.cur = Row{res: gjson.ParseBytes(r.batch[r.pos])}
	r.pos++
	return true
}

func (r *streamRows) readBatch() bool {
	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			r.err = fmt.Errorf("read search stream: %w", err)
			return false
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			r.err = fmt.Errorf("read search stream: unexpected token %v", tok)
			return false
		}
		r.started = true
	}

	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil && !errors.Is(err, io.EOF) {
			r.err = fmt.Errorf("read search stream: %w", err)
			return false
		}
		r.done = true
		return false
	}

	var b streamBatch
	if err := r.dec.Decode(&b); err != nil {
		r.err = fmt.Errorf("decode search stream batch: %w", err)
		return false
	}
	if len(b.Error) > 0 {
		r.err = apiErrorFrom(0, gjson.ParseBytes(b.Error))
		return false
	}

	r.batch = b.Results
	r.pos = 0
	return true
}

func (r *streamRows) Row() Row { return r.cur }

func (r *streamRows) Err() error { return r.err }

func (r *streamRows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.batch = nil
	return r.body.Close()
}

// StaticRows serves a fixed set of rows, then Fail (if any) from Err.
// It stands in for a live search stream in dry runs and tests.
type StaticRows struct {
	Rows []Row
	Fail error

	pos    int
	closed bool
}

// NewStaticRows builds StaticRows from raw JSON result objects.
func NewStaticRows(raw ...string) *StaticRows {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, NewRow(r))
	}
	return &StaticRows{Rows: rows}
}

func (s *StaticRows) Next() bool {
	if s.closed || s.pos >= len(s.Rows) {
		return false
	}
	s.pos++
	return true
}

func (s *StaticRows) Row() Row {
	if s.pos == 0 || s.pos > len(s.Rows) {
		return Row{}
	}
	return s.Rows[s.pos-1]
}

func (s *StaticRows) Err() error {
	if s.pos >= len(s.Rows) {
		return s.Fail
	}
	return nil
}

// Closed reports whether Close was called.
func (s *StaticRows) Closed() bool { return s.closed }

func (s *StaticRows) Close() error {
	s.closed = true
	return nil
}
