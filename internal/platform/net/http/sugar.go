package http

import (
	stdhttp "net/http"

	"ringroster/internal/platform/net/http/bind"
)

// GetJSON mounts fn for GET and wraps its result in a 200 envelope
func GetJSON(r Router, path string, fn func(*stdhttp.Request) (any, error)) {
	r.Get(path, Handle(func(req *stdhttp.Request) Response {
		out, err := fn(req)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	}))
}

// GetQuery binds the query string into Q before calling fn
func GetQuery[Q any](r Router, path string, fn func(*stdhttp.Request, Q) (Response, error)) {
	r.Get(path, Handle(func(req *stdhttp.Request) Response {
		q, err := bind.Query[Q](req)
		if err != nil {
			return Error(err)
		}
		resp, err := fn(req, q)
		if err != nil {
			return Error(err)
		}
		return resp
	}))
}

// PostJSON mounts fn for POST; the result is a 201 envelope
func PostJSON[T any](r Router, path string, fn func(*stdhttp.Request, T) (any, error), opts ...bind.JSONOptions) {
	r.Post(path, bodyHandler(fn, Created, opts))
}

// PatchJSON mounts fn for PATCH; the result is a 200 envelope
func PatchJSON[T any](r Router, path string, fn func(*stdhttp.Request, T) (any, error), opts ...bind.JSONOptions) {
	r.Patch(path, bodyHandler(fn, OK, opts))
}

// DeleteNoContent mounts fn for DELETE and answers 204 on success
func DeleteNoContent(r Router, path string, fn func(*stdhttp.Request) error) {
	r.Delete(path, Handle(func(req *stdhttp.Request) Response {
		if err := fn(req); err != nil {
			return Error(err)
		}
		return NoContent()
	}))
}

func bodyHandler[T any](fn func(*stdhttp.Request, T) (any, error), wrap func(any) Response, opts []bind.JSONOptions) Handler {
	return Handle(func(req *stdhttp.Request) Response {
		in, err := bind.ParseJSON[T](req, opts...)
		if err != nil {
			return Error(err)
		}
		out, err := fn(req, in)
		if err != nil {
			return Error(err)
		}
		return wrap(out)
	})
}
