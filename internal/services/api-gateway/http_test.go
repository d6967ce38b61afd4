package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/pushgate/internal/vapid"
)

func testRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	return NewRouter(svc, []string{"https://app.example.com"}, func() error { return nil })
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHTTP_Subscribe(t *testing.T) {
	reg := newFakeRegistry()
	h := testRouter(t, newService(reg, &fakeEvents{}))

	w := do(t, h, http.MethodPost, "/subscribe", `{
		"userId": "user-1",
		"subscription": {
			"endpoint": "https://push.example.com/ep/1",
			"keys": {"p256dh": "p", "auth": "a"}
		}
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Len(t, reg.subs, 1)
}

func TestHTTP_Subscribe_BadRequest(t *testing.T) {
	h := testRouter(t, newService(newFakeRegistry(), &fakeEvents{}))

	for name, body := range map[string]string{
		"malformed json": `{`,
		"missing userId": `{"subscription":{"endpoint":"https://x","keys":{"p256dh":"p","auth":"a"}}}`,
		"missing keys":   `{"userId":"u","subscription":{"endpoint":"https://x"}}`,
		"empty endpoint": `{"userId":"u","subscription":{"keys":{"p256dh":"p","auth":"a"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/subscribe", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestHTTP_Unsubscribe(t *testing.T) {
	reg := newFakeRegistry()
	svc := newService(reg, &fakeEvents{})
	h := testRouter(t, svc)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/subscribe", `{
		"userId": "user-1",
		"subscription": {"endpoint": "https://push.example.com/ep/1", "keys": {"p256dh": "p", "auth": "a"}}
	}`).Code)

	w := do(t, h, http.MethodDelete, "/subscribe",
		`{"userId": "user-1", "endpoint": "https://push.example.com/ep/1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Empty(t, reg.subs)
}

func TestHTTP_Notify(t *testing.T) {
	ev := &fakeEvents{}
	h := testRouter(t, newService(newFakeRegistry(), ev))

	w := do(t, h, http.MethodPost, "/notify",
		`{"userIds": ["a", "b"], "title": "hi", "body": "there", "data": {"url": "/inbox"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ev.published, 1)
	assert.Equal(t, []string{"a", "b"}, ev.published[0].UserIDs)
	assert.JSONEq(t, `{"url": "/inbox"}`, string(ev.published[0].Notification.Data))
}

func TestHTTP_Notify_NoRecipients(t *testing.T) {
	h := testRouter(t, newService(newFakeRegistry(), &fakeEvents{}))

	w := do(t, h, http.MethodPost, "/notify", `{"userIds": [], "title": "hi", "body": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Broadcast(t *testing.T) {
	ev := &fakeEvents{}
	h := testRouter(t, newService(newFakeRegistry(), ev))

	w := do(t, h, http.MethodPost, "/broadcast", `{"title": "hi", "body": "all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ev.published, 1)
	assert.Empty(t, ev.published[0].UserIDs)
}

func TestHTTP_VapidPublicKey(t *testing.T) {
	h := testRouter(t, newService(newFakeRegistry(), &fakeEvents{}))

	w := do(t, h, http.MethodGet, "/vapid-public-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BTestPublicKey", decode(t, w)["publicKey"])
}

func TestHTTP_VapidPublicKey_NotConfigured(t *testing.T) {
	svc := newService(newFakeRegistry(), &fakeEvents{})
	svc.Vapid = vapid.FromConfig(vapid.Placeholder, vapid.Placeholder, "")
	h := testRouter(t, svc)

	w := do(t, h, http.MethodGet, "/vapid-public-key", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHTTP_Health(t *testing.T) {
	h := testRouter(t, newService(newFakeRegistry(), &fakeEvents{}))

	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestHTTP_Healthz_Unhealthy(t *testing.T) {
	svc := newService(newFakeRegistry(), &fakeEvents{})
	h := NewRouter(svc, nil, func() error { return assert.AnError })

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHTTP_CORSPreflight(t *testing.T) {
	h := testRouter(t, newService(newFakeRegistry(), &fakeEvents{}))

	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
