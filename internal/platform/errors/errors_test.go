package errors

import (
	"context"
	stderrs "errors"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
		ErrorCodeDuplicateKey:    http.StatusConflict,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeUnauthorized:    http.StatusUnauthorized,
		ErrorCodeTimeout:         http.StatusGatewayTimeout,
		ErrorCodeDB:              http.StatusInternalServerError,
		ErrorCode("made_up"):     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusCode(code); got != want {
			t.Fatalf("HTTPStatusCode(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestCodeForStatus_RoundTrips(t *testing.T) {
	for _, code := range []ErrorCode{
		ErrorCodeNotFound, ErrorCodeInvalidArgument, ErrorCodeValidation, ErrorCodeUnauthorized,
		ErrorCodeForbidden, ErrorCodeTooManyRequests, ErrorCodeUnavailable, ErrorCodeTimeout,
	} {
		if got := CodeForStatus(HTTPStatusCode(code)); got != code {
			t.Fatalf("CodeForStatus(HTTPStatusCode(%s)) = %s", code, got)
		}
	}
	if got := CodeForStatus(http.StatusTeapot); got != ErrorCodeUnknown {
		t.Fatalf("teapot = %s", got)
	}
}

func TestError_Rendering(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	cause := stderrs.New("conn reset")
	err := WithOp(Wrap(cause, ErrorCodeDB, "list contacts"), "contacts.repo")
	if got := err.Error(); got != "contacts.repo: list contacts: conn reset" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	e, ok := As(err)
	if !ok || e.Message() != "list contacts" || e.Op() != "contacts.repo" {
		t.Fatalf("As = %+v %v", e, ok)
	}
}

func TestWithField(t *testing.T) {
	base := InvalidArgf("bad phone")
	withField := WithField(base, "phone")
	if e, _ := As(base); e.Field() != "" {
		t.Fatalf("WithField mutated receiver")
	}
	if w := WireFrom(withField); w.Field != "phone" || w.Code != ErrorCodeInvalidArgument {
		t.Fatalf("wire = %+v", w)
	}

	foreign := WithField(stderrs.New("plain"), "email")
	if CodeOf(foreign) != ErrorCodeUnknown || WireFrom(foreign).Field != "email" {
		t.Fatalf("foreign WithField = %+v", WireFrom(foreign))
	}
	if WithField(nil, "x") != nil {
		t.Fatalf("WithField(nil) should stay nil")
	}
}

func TestFromWire(t *testing.T) {
	err := FromWire(http.StatusNotFound, Wire{Code: ErrorCodeNotFound, Message: "contact not found"})
	if !IsCode(err, ErrorCodeNotFound) || err.Error() != "contact not found" {
		t.Fatalf("FromWire = %v", err)
	}

	err = FromWire(http.StatusServiceUnavailable, Wire{})
	if !IsCode(err, ErrorCodeUnavailable) || err.Error() != "Service Unavailable" {
		t.Fatalf("FromWire derived = %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("unavailable should be retryable")
	}
}

func TestHTTP(t *testing.T) {
	if s, w := HTTP(nil); s != http.StatusOK || w != (Wire{}) {
		t.Fatalf("HTTP(nil) = %d %+v", s, w)
	}
	s, w := HTTP(stderrs.New("boom"))
	if s != http.StatusInternalServerError || w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("HTTP(foreign) = %d %+v", s, w)
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) != nil")
	}
	if !IsCode(WrapIf(context.Canceled, ErrorCodeTimeout, "x"), ErrorCodeTimeout) {
		t.Fatalf("WrapIf lost code")
	}
}

func TestRoot(t *testing.T) {
	cause := stderrs.New("root")
	if Root(Wrap(Wrap(cause, ErrorCodeDB, "a"), ErrorCodeDB, "b")) != cause {
		t.Fatalf("Root did not reach cause")
	}
	if Root(nil) != nil {
		t.Fatalf("Root(nil)")
	}
}
