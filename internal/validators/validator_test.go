package validators

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Owner string `validate:"required,objectid"`
	Name  string `validate:"required,min=2"`
}

func TestCustomValidator(t *testing.T) {
	t.Parallel()

	cv := New()

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{name: "valid", in: sample{Owner: "64b7f0c2a1b2c3d4e5f60718", Name: "ok"}},
		{name: "bad object id", in: sample{Owner: "not-an-id", Name: "ok"}, wantErr: true},
		{name: "missing name", in: sample{Owner: "64b7f0c2a1b2c3d4e5f60718"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := cv.Validate(tt.in)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, http.StatusBadRequest, he.Code)
		})
	}
}
