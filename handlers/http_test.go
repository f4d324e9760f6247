package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/interfaces/mock"
	"github.com/ezloteam/cote/service"
)

func newTestEcho(d *mock.DiscovererMock) *echo.Echo {
	e := echo.New()
	RegisterHandlers(e, NewHTTPServer(d, log.NewNopLogger()))
	service.RegisterErrorHandler(e, log.NewNopLogger())
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var errBody struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	require.NotNil(t, errBody.Error)
	assert.NotEmpty(t, errBody.Error.Message)
	return errBody.Error.Code
}

func TestNewHTTPServer_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "handlers.http.go: discoverer is required", func() {
		NewHTTPServer(nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "handlers.http.go: logger is required", func() {
		NewHTTPServer(&mock.DiscovererMock{}, nil)
	})
}

func TestHTTPServer_GetNodes(t *testing.T) {
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ok sorted by id", func(t *testing.T) {
		d := &mock.DiscovererMock{
			NodesFunc: func() []domain.Node {
				return []domain.Node{
					{ID: "b", HostName: "host-b", Port: 12345, Weight: -0.2, LastSeen: seen},
					{ID: "a", HostName: "host-a", Port: 12345, Weight: -0.1, Advertisement: json.RawMessage(`{"role":"db"}`), LastSeen: seen},
				}
			},
		}
		rec := serve(newTestEcho(d), http.MethodGet, "/v1/nodes", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp NodesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Nodes, 2)
		assert.Equal(t, "a", resp.Nodes[0].ID)
		assert.Equal(t, "host-a", resp.Nodes[0].HostName)
		assert.JSONEq(t, `{"role":"db"}`, string(resp.Nodes[0].Advertisement))
		assert.Equal(t, "b", resp.Nodes[1].ID)
		assert.Nil(t, resp.Nodes[1].Advertisement)
		assert.True(t, seen.Equal(resp.Nodes[1].LastSeen))
	})

	t.Run("404 empty table", func(t *testing.T) {
		d := &mock.DiscovererMock{NodesFunc: func() []domain.Node { return nil }}
		rec := serve(newTestEcho(d), http.MethodGet, "/v1/nodes", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, service.ErrEntityNotFound, errorCode(t, rec))
	})
}

func TestHTTPServer_GetSelf(t *testing.T) {
	d := &mock.DiscovererMock{
		IdentityFunc: func() domain.Identity {
			return domain.Identity{HostName: "node-a", InstanceID: "iid-a", ProcessID: "pid-a"}
		},
		MeFunc: func() domain.Hello {
			return domain.Hello{Weight: -0.5, Advertisement: json.RawMessage(`[1,2]`)}
		},
	}
	rec := serve(newTestEcho(d), http.MethodGet, "/v1/self", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"hostName":"node-a","instanceId":"iid-a","processId":"pid-a","weight":-0.5,"advertisement":[1,2]}`,
		rec.Body.String())
}

func TestHTTPServer_PutAdvertisement(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		advertiseErr   error
		expectedStatus int
		expectedCode   string
		advertised     bool
	}{
		{
			name:           "ok",
			body:           `{"service":"db","port":5432}`,
			expectedStatus: http.StatusNoContent,
			advertised:     true,
		},
		{
			name:           "400 invalid JSON",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name:           "400 rejected by engine",
			body:           `{}`,
			advertiseErr:   service.NewBadParameterError("cannot serialize advertisement", nil),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
			advertised:     true,
		},
		{
			name:           "500 unexpected error",
			body:           `{}`,
			advertiseErr:   assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.ErrInternalServerError,
			advertised:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mock.DiscovererMock{
				AdvertiseFunc: func(v any) error {
					raw, ok := v.(json.RawMessage)
					require.True(t, ok)
					assert.JSONEq(t, tt.body, string(raw))
					return tt.advertiseErr
				},
			}
			rec := serve(newTestEcho(d), http.MethodPut, "/v1/advertisement", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, rec))
			} else {
				assert.Empty(t, rec.Body.Bytes())
			}
			if tt.advertised {
				assert.Len(t, d.AdvertiseCalls(), 1)
			} else {
				assert.Empty(t, d.AdvertiseCalls())
			}
		})
	}
}

func TestHTTPServer_Metrics(t *testing.T) {
	d := &mock.DiscovererMock{NodesFunc: func() []domain.Node { return nil }}
	e := newTestEcho(d)
	serve(e, http.MethodGet, "/v1/nodes", "")

	rec := serve(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "node_discover_http_requests_total")
}
