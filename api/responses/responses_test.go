package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", data["status"])
}

func TestWriteErrorUsesClientMessageForValidation(t *testing.T) {
	rec := httptest.NewRecorder()

	err := pkgerrors.New(pkgerrors.CodeValidation, "title is required").
		WithDetails(map[string]string{"title": "is required"})
	WriteError(context.Background(), nil, rec, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	require.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
	require.Equal(t, "title is required", envelope.Error.Message)
	require.NotNil(t, envelope.Error.Details)
}

func TestWriteErrorMasksInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection refused"), "load product")
	WriteError(context.Background(), nil, rec, err)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	require.Equal(t, "internal server error", envelope.Error.Message)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWriteErrorSuppressesDetailsWhenNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()

	err := pkgerrors.New(pkgerrors.CodeForbidden, "access denied").
		WithDetails(map[string]string{"brand_id": "b-1"})
	WriteError(context.Background(), nil, rec, err)

	require.Equal(t, http.StatusForbidden, rec.Code)
	envelope := decodeError(t, rec)
	require.Nil(t, envelope.Error.Details)
}

func TestWriteErrorWrapsUntypedAsInternal(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(context.Background(), nil, rec, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	require.Equal(t, string(pkgerrors.CodeInternal), envelope.Error.Code)
}
