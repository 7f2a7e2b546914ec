package httpadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ivankhr/memogen/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrValidation, "op", errors.New("bad")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrNotFound, "op", errors.New("missing")), http.StatusNotFound},
		{domain.WrapError(domain.ErrTemporary, "op", errors.New("overloaded")), http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
