package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
)

type samplePayload struct {
	Title string `json:"title" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"ok","surprise":true}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyFormatsFieldErrorsByJSONTag(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"limit":500}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["title"])
	require.Equal(t, "must be at most 100", details["limit"])
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"ok","limit":25}`))

	var payload samplePayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	require.Equal(t, "ok", payload.Title)
	require.Equal(t, 25, payload.Limit)
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=50", nil)
	value, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 50, value)

	req = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 20, value)

	req = httptest.NewRequest("GET", "/?limit=101", nil)
	_, err = ParseQueryInt(req, "limit", 20, 1, 100)
	require.Error(t, err)

	req = httptest.NewRequest("GET", "/?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 20, 1, 100)
	require.Error(t, err)
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest("GET", "/?soft=false", nil)
	value, err := ParseQueryBool(req, "soft", true)
	require.NoError(t, err)
	require.False(t, value)

	req = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryBool(req, "soft", true)
	require.NoError(t, err)
	require.True(t, value)

	req = httptest.NewRequest("GET", "/?soft=maybe", nil)
	_, err = ParseQueryBool(req, "soft", true)
	require.Error(t, err)
}
