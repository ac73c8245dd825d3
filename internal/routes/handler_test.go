package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandlerGetRoute(t *testing.T) {
	store, routeID, _ := newMemoryStore()
	h := NewHandler(NewService(store), nil)

	rr := serve(h, http.MethodGet, "/api/routes/"+routeID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got Route
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Sinop - Santos", got.Name)
	assert.Equal(t, Place{City: "Santos", State: "SP"}, got.Destination)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/routes/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/routes/abc", "").Code)
}

func TestHandlerPutStations(t *testing.T) {
	store, routeID, stations := newMemoryStore()
	h := NewHandler(NewService(store), nil)
	target := "/api/routes/" + routeID.String() + "/stations"

	body := `{"station_ids":["` + stations[1].String() + `","` + stations[0].String() + `"]}`
	rr := serve(h, http.MethodPut, target, body)
	require.Equal(t, http.StatusOK, rr.Code)
	var got Route
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Stations, 2)
	assert.Equal(t, stations[1].String(), got.Stations[0].ID)

	rr = serve(h, http.MethodPut, target, `{"station_ids":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"Validation Failed"`)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPut, target, `{`).Code)
}
