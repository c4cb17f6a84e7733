package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		max     int64
		wantErr string
	}{
		{name: "valid", body: `{"name":"Acme"}`},
		{name: "empty", body: ``, wantErr: "request body is empty"},
		{name: "unknown field", body: `{"name":"Acme","extra":1}`, wantErr: "unknown field"},
		{name: "two objects", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON object"},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", 64) + `"}`, max: 16, wantErr: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var dst payload
			err := ReadJSON(rec, req, &dst, tt.max)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Acme", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
