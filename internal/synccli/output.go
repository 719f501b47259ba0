package synccli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"ringroster/internal/core/contactsync"
	cdomain "ringroster/internal/services/contacts/domain"
	udomain "ringroster/internal/services/uploads/domain"
)

// printer serializes writes from accumulator listeners and command code
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

type viewLine struct {
	Seq        uint64 `json:"seq"`
	Generation uint64 `json:"generation"`
	State      string `json:"state"`
	Items      int    `json:"items"`
	Cursor     string `json:"cursor,omitempty"`
	Error      string `json:"error,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	End        bool   `json:"end,omitempty"`
	Retry      bool   `json:"retry,omitempty"`
	Last       string `json:"last,omitempty"`
}

func toLine(v contactsync.View[cdomain.Contact]) viewLine {
	l := viewLine{
		Seq:        v.Seq,
		Generation: v.Generation,
		State:      v.State.String(),
		Items:      len(v.Items),
		Cursor:     string(v.Cursor),
		Truncated:  v.Truncated,
		End:        v.ShowEnd(),
		Retry:      v.ShowRetry(),
	}
	if v.LastError != nil {
		l.Error = v.LastError.Error()
	}
	if n := len(v.Items); n > 0 {
		l.Last = v.Items[n-1].Name
	}
	return l
}

func (p *printer) view(v contactsync.View[cdomain.Contact]) {
	l := toLine(v)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.format == "json" {
		_ = json.NewEncoder(p.w).Encode(l)
		return
	}
	fmt.Fprintf(p.w, "gen=%d seq=%d state=%s items=%d", l.Generation, l.Seq, l.State, l.Items)
	if l.Last != "" {
		fmt.Fprintf(p.w, " last=%q", l.Last)
	}
	switch {
	case l.Retry:
		fmt.Fprintf(p.w, " error=%q (retry)", l.Error)
	case l.End:
		fmt.Fprint(p.w, " end")
	case l.Truncated:
		fmt.Fprint(p.w, " truncated")
	}
	fmt.Fprintln(p.w)
}

func (p *printer) outcome(o udomain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.format == "json" {
		_ = json.NewEncoder(p.w).Encode(o)
		return
	}
	fmt.Fprintf(p.w, "upload %s from %q: %d ok, %d failed\n", o.UploadID, o.SourceName, o.SuccessCount, o.FailureCount)
	for _, e := range o.Errors {
		if e.Field != "" {
			fmt.Fprintf(p.w, "  row %d %s: %s\n", e.Row, e.Field, e.Message)
		} else {
			fmt.Fprintf(p.w, "  row %d: %s\n", e.Row, e.Message)
		}
	}
}

func (p *printer) decision(d contactsync.Decision) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.format == "json" {
		_ = json.NewEncoder(p.w).Encode(map[string]string{"decision": d.String()})
		return
	}
	fmt.Fprintf(p.w, "list %s\n", d)
}
