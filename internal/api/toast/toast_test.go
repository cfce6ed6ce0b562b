package toast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

func TestCollector_WriteTrigger(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/sign-in", nil), rec)

	col := NewCollector()
	require.NoError(t, col.WriteTrigger(c))
	assert.Empty(t, rec.Header().Get("HX-Trigger"))

	col.Toast(domain.SignInFailedToast)
	require.NoError(t, col.WriteTrigger(c))

	var payload map[string]domain.Toast
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &payload))
	assert.Equal(t, domain.SignInFailedToast, payload["toast"])
	assert.Equal(t, "destructive", string(payload["toast"].Variant))
}

func TestCollector_Order(t *testing.T) {
	col := NewCollector()
	col.Toast(domain.Toast{Title: "first"})
	col.Toast(domain.Toast{Title: "second"})

	all := col.Toasts()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)

	last, ok := col.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", last.Title)
}
