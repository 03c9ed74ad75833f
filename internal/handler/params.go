package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// pathParam binds a required simple-style path parameter, percent-decoding it
// exactly once.
//
// chi matches on r.URL.RawPath when it is set and on the already decoded
// r.URL.Path otherwise, so the captured value is only sometimes escaped. It
// is brought back to escaped form before binding so a name like "100%" or a
// tag like "%41" survives intact.
func pathParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		raw = url.PathEscape(raw)
	}
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, raw, &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	return v, err
}

// optionalIntQuery binds an optional form-style integer query parameter.
// The result is nil when the parameter is absent.
func optionalIntQuery(r *http.Request, name string) (*int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return nil, err
	}
	return v, nil
}
