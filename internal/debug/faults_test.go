package debug

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultProfile_OneShot(t *testing.T) {
	f := &FaultProfile{}

	assert.False(t, f.ShouldFailConnect())
	f.SetFailNextConnect(true)
	assert.True(t, f.ShouldFailConnect())
	assert.False(t, f.ShouldFailConnect(), "fault is consumed")

	f.SetFailNextCall(true)
	assert.True(t, f.ShouldFailCall())
	assert.False(t, f.ShouldFailCall())

	require.NoError(t, f.SetDelayNextCall(25))
	assert.Equal(t, 25, f.GetAndClearDelay())
	assert.Equal(t, 0, f.GetAndClearDelay())
	assert.Error(t, f.SetDelayNextCall(-1))
}

func TestFaultProfile_Reset(t *testing.T) {
	f := &FaultProfile{}
	f.SetFailNextConnect(true)
	f.SetFailNextCall(true)
	require.NoError(t, f.SetDelayNextCall(10))

	f.Reset()
	assert.Equal(t, map[string]any{
		"fail_next_connect":      false,
		"fail_next_call":         false,
		"delay_next_call_millis": 0,
	}, f.Snapshot())
}

type fixedIntrospector struct{}

func (fixedIntrospector) SnapshotData(context.Context) Snapshot {
	return Snapshot{Backend: "memory", SessionsOpened: 3, SessionsClosed: 3}
}

func TestHandler(t *testing.T) {
	t.Cleanup(Faults.Reset)
	h := Handler(fixedIntrospector{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/_debug/faults", strings.NewReader(`{"fail_next_call":true}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fail_next_connect":false,"fail_next_call":true,"delay_next_call_millis":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_debug/state", nil))
	assert.Contains(t, rec.Body.String(), `"sessionsOpened":3`)
	assert.Contains(t, rec.Body.String(), `"fail_next_call":true`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/_debug/faults", strings.NewReader(`{"delay_next_call_millis":-5}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_debug/faults/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/_debug/faults/reset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, Faults.ShouldFailCall())
}
