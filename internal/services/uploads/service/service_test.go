package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ringroster/internal/adapters/mutationbus"
	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/metrics"
	"ringroster/internal/platform/store"
	fdomain "ringroster/internal/services/fields/domain"
	"ringroster/internal/services/uploads/domain"
	"ringroster/internal/services/uploads/repo"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeDB runs Tx inline and counts depth so savepoints can be asserted
type fakeDB struct {
	depth     int
	txs       int
	execs     []string
	commitErr error
}

func (d *fakeDB) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	d.execs = append(d.execs, sql)
	return nil, nil
}
func (d *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (d *fakeDB) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (d *fakeDB) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	d.txs++
	d.depth++
	defer func() { d.depth-- }()
	if err := fn(d); err != nil {
		return err
	}
	if d.depth == 1 {
		return d.commitErr
	}
	return nil
}

type memRepo struct {
	db        *fakeDB
	upserts   []domain.Prepared
	depths    []int
	failPhone string
	stored    *domain.Outcome
}

func (m *memRepo) UpsertContact(_ context.Context, tenantID, listID, id string, p domain.Prepared, at time.Time) error {
	if p.Phone == m.failPhone {
		return perr.WithField(perr.Newf(perr.ErrorCodeDB, "value too long"), "name")
	}
	m.upserts = append(m.upserts, p)
	m.depths = append(m.depths, m.db.depth)
	return nil
}

func (m *memRepo) InsertOutcome(_ context.Context, tenantID string, o domain.Outcome) error {
	m.stored = &o
	return nil
}

func (m *memRepo) GetOutcome(_ context.Context, tenantID, id string) (domain.Outcome, error) {
	if m.stored == nil || m.stored.UploadID != id {
		return domain.Outcome{}, perr.NotFoundf("upload %s not found", id)
	}
	return *m.stored, nil
}

type catalog fdomain.Catalog

func (c catalog) EnabledFields(context.Context, string) (fdomain.Catalog, error) {
	return fdomain.Catalog(c), nil
}
func (c catalog) EnabledKeys(context.Context, string) (map[string]fdomain.FieldType, error) {
	return fdomain.Catalog(c).Types(), nil
}

type events struct {
	got []mutationbus.Event
	err error
}

func (e *events) Publish(_ context.Context, ev mutationbus.Event) error {
	e.got = append(e.got, ev)
	return e.err
}

type audit struct{ n int }

func (a *audit) Record(context.Context, string, string, string, int, int, time.Time) error {
	a.n++
	return errors.New("clickhouse down")
}

type rig struct {
	svc *Service
	db  *fakeDB
	mem *memRepo
	ev  *events
	au  *audit
	reg *metrics.Registry
}

func newRig(t *testing.T, cfg Config) rig {
	t.Helper()
	db := &fakeDB{}
	mem := &memRepo{db: db}
	r := rig{db: db, mem: mem, ev: &events{}, au: &audit{}, reg: metrics.New()}
	cat := catalog{
		"tier":  {Key: "tier", Type: fdomain.TypeEnum, Options: []string{"gold", "silver"}, Enabled: true},
		"score": {Key: "score", Type: fdomain.TypeNumber, Enabled: true},
	}
	r.svc = New(Deps{
		DB:      db,
		Binder:  repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return mem }),
		Catalog: cat,
		Events:  r.ev,
		Audit:   r.au,
		Metrics: r.reg.Uploads,
	}, cfg)
	r.svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	r.svc.newID = func() string { return "9b2f4f8e-1111-4222-8333-444455556666" }
	return r
}

func TestUpload_MixedRows(t *testing.T) {
	r := newRig(t, Config{})
	r.mem.failPhone = "+15550000004"
	req := domain.Request{SourceName: " crm ", ListID: "l1", Rows: []domain.Row{
		{Name: "Ana", Phone: "+1 (555) 000-0001", Email: " Ana@Example.COM ", CustomFields: map[string]any{"tier": "gold"}},
		{Name: "  ", Phone: "+15550000002"},
		{Name: "Bo", Phone: "12"},
		{Name: "Cy", Phone: "+15550000003", CustomFields: map[string]any{"tier": "bronze"}},
		{Name: "Di", Phone: "+15550000003"},
		{Name: "Ed", Phone: "+15550000004"},
		{Name: "Fa", Phone: "+15550000005", CustomFields: map[string]any{"nope": 1}},
		{Name: "Gi", Phone: "+15550000006", CustomFields: map[string]any{"score": "7.5"}},
	}}
	out, err := r.svc.Upload(context.Background(), "t1", req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.SuccessCount != 3 || out.FailureCount != 5 || len(out.Errors) != 5 {
		t.Fatalf("counts %d/%d %+v", out.SuccessCount, out.FailureCount, out.Errors)
	}
	wantRows := []int{2, 3, 4, 6, 7}
	for i, e := range out.Errors {
		if e.Row != wantRows[i] {
			t.Fatalf("errors not ordered by row: %+v", out.Errors)
		}
	}
	byRow := map[int]domain.RowError{}
	for _, e := range out.Errors {
		byRow[e.Row] = e
	}
	if byRow[2].Field != "name" || byRow[3].Field != "phone" || byRow[6].Field != "name" {
		t.Fatalf("fields %+v", byRow)
	}
	if byRow[4].Field != "custom_fields.tier" || !strings.Contains(byRow[4].Message, "gold silver") {
		t.Fatalf("enum error %+v", byRow[4])
	}
	if byRow[7].Field != "custom_fields.nope" {
		t.Fatalf("unknown field error %+v", byRow[7])
	}
	if out.SourceName != "crm" {
		t.Fatalf("source %q", out.SourceName)
	}

	ana := r.mem.upserts[0]
	if ana.Phone != "+15550000001" || ana.Email != "ana@example.com" || ana.SearchKey != "ana +15550000001 ana@example.com" {
		t.Fatalf("canonical row %+v", ana)
	}
	for _, d := range r.mem.depths {
		if d != 2 {
			t.Fatalf("each row should run in a savepoint, depth %d", d)
		}
	}
	if r.mem.stored == nil || r.mem.stored.FailureCount != 5 {
		t.Fatalf("outcome not stored")
	}

	if len(r.ev.got) != 1 || r.ev.got[0].TenantID != "t1" || r.ev.got[0].SuccessCount != 3 {
		t.Fatalf("events %+v", r.ev.got)
	}
	if r.au.n != 1 {
		t.Fatalf("audit not called")
	}
	want := `
# HELP ringroster_uploads_rows_total Uploaded rows by result.
# TYPE ringroster_uploads_rows_total counter
ringroster_uploads_rows_total{result="failure"} 5
ringroster_uploads_rows_total{result="success"} 3
`
	if err := testutil.GatherAndCompare(r.reg.Gatherer(), strings.NewReader(want), "ringroster_uploads_rows_total"); err != nil {
		t.Fatalf("rows metric: %v", err)
	}
}

func TestUpload_StatementTimeoutHook(t *testing.T) {
	r := newRig(t, Config{StatementTimeout: 1500 * time.Millisecond})
	_, err := r.svc.Upload(context.Background(), "t1", domain.Request{SourceName: "x", Rows: []domain.Row{{Name: "A", Phone: "+15550000001"}}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(r.db.execs) == 0 || r.db.execs[0] != "SET LOCAL statement_timeout = 1500" {
		t.Fatalf("timeout not set first: %v", r.db.execs)
	}
}

func TestUpload_TooManyRows(t *testing.T) {
	r := newRig(t, Config{MaxRows: 2})
	rows := make([]domain.Row, 3)
	_, err := r.svc.Upload(context.Background(), "t1", domain.Request{SourceName: "x", Rows: rows})
	e, _ := perr.As(err)
	if e == nil || e.Code() != perr.ErrorCodeValidation || e.Field() != "rows" {
		t.Fatalf("expected rows validation, got %v", err)
	}
	if r.db.txs != 0 || len(r.ev.got) != 0 {
		t.Fatalf("nothing should run for a rejected request")
	}
}

func TestUpload_CommitFailureSkipsSinks(t *testing.T) {
	r := newRig(t, Config{})
	r.db.commitErr = errors.New("connection reset")
	_, err := r.svc.Upload(context.Background(), "t1", domain.Request{SourceName: "x", Rows: []domain.Row{{Name: "A", Phone: "+15550000001"}}})
	if !errors.Is(err, r.db.commitErr) {
		t.Fatalf("commit error not returned: %v", err)
	}
	if len(r.ev.got) != 0 || r.au.n != 0 {
		t.Fatalf("sinks must not run for an uncommitted upload")
	}
}

func TestUpload_AllRowsFailStillSucceeds(t *testing.T) {
	r := newRig(t, Config{})
	r.ev.err = errors.New("nats down")
	out, err := r.svc.Upload(context.Background(), "t1", domain.Request{SourceName: "x", Rows: []domain.Row{{Name: "A", Phone: "bad"}}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.SuccessCount != 0 || out.FailureCount != 1 {
		t.Fatalf("outcome %+v", out)
	}
}

func TestGet(t *testing.T) {
	r := newRig(t, Config{})
	out, _ := r.svc.Upload(context.Background(), "t1", domain.Request{SourceName: "x", Rows: []domain.Row{{Name: "A", Phone: "+15550000001"}}})
	got, err := r.svc.Get(context.Background(), "t1", out.UploadID)
	if err != nil || got.SuccessCount != 1 {
		t.Fatalf("get %+v %v", got, err)
	}
	if _, err := r.svc.Get(context.Background(), "t1", "x"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("bad id: %v", err)
	}
}

func TestPrepare_NoCatalogRejectsCustomFields(t *testing.T) {
	ready, rejected := Prepare([]domain.Row{
		{Name: "A", Phone: "5550000001"},
		{Name: "B", Phone: "5550000002", CustomFields: map[string]any{"tier": "gold"}},
		{Name: "C", Phone: "5550000003", Email: "not-an-email"},
	}, nil)
	if len(ready) != 1 || ready[0].Index != 1 {
		t.Fatalf("ready %+v", ready)
	}
	if len(rejected) != 2 || rejected[1].Field != "email" {
		t.Fatalf("rejected %+v", rejected)
	}
}
