package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteError(rec, 422, "OBSERVATIONS_INVALID_QUERY", "bad query", map[string]string{"path": "/observations"})
	require.NoError(t, err)
	require.Equal(t, 422, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "OBSERVATIONS_INVALID_QUERY", envelope.Code)
	require.Equal(t, "bad query", envelope.Message)
	require.Equal(t, "/observations", envelope.Meta["path"])
}

func TestWriteJSON_NilPayloadWritesHeaderOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, 204, nil))
	require.Equal(t, 204, rec.Code)
	require.Empty(t, rec.Body.String())
}
