package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/keyword-synergy/internal/draw"
	"github.com/sakif/keyword-synergy/internal/handler"
	"github.com/sakif/keyword-synergy/internal/realtime"
	sqliteRepo "github.com/sakif/keyword-synergy/internal/repository/sqlite"
	"github.com/sakif/keyword-synergy/internal/service"
)

// testAPI is the full handler stack over an in-memory database.
type testAPI struct {
	router *chi.Mux
	hub    *realtime.Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)

	hub := realtime.NewHub(realtime.DefaultConfig(), logger)
	hub.Start()
	t.Cleanup(func() {
		hub.Stop()
		db.Close()
	})

	picker := draw.NewPicker(rand.NewPCG(1, 2))
	users := handler.NewUserHandler(service.NewUserService(db.Users(), logger), logger)
	rooms := handler.NewRoomHandler(service.NewRoomService(db.Users(), db.Rooms(), logger), "https://synergy.example", logger)
	keywords := handler.NewKeywordHandler(service.NewKeywordService(db.Keywords(), hub, logger), logger)
	draws := handler.NewDrawHandler(service.NewDrawService(db.Keywords(), db.History(), picker, hub, logger), logger)
	history := handler.NewHistoryHandler(service.NewHistoryService(db.History(), logger), logger)
	rt := handler.NewRealtimeHandler(hub, logger)

	r := chi.NewRouter()
	r.Get("/healthz", rt.HandleHealth)
	r.Post("/api/users", users.HandleCreate)
	r.Post("/api/rooms", rooms.HandleCreate)
	r.Post("/api/rooms/join", rooms.HandleJoin)
	r.Get("/api/rooms/{id}", rooms.HandleGet)
	r.Get("/api/rooms/{id}/qr", rooms.HandleQR)
	r.Post("/api/keywords", keywords.HandleSubmit)
	r.Get("/api/keywords", keywords.HandleList)
	r.Post("/api/draw", draws.HandleDraw)
	r.Get("/api/history", history.HandleList)
	r.Get("/api/realtime", rt.HandleSubscribe)

	return &testAPI{router: r, hub: hub}
}

// do sends body (a string of JSON, or "" for none) and returns the recorder.
func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// createUser creates a user through the API and returns its ID.
func (a *testAPI) createUser(t *testing.T, name string) string {
	t.Helper()
	rr := a.do(http.MethodPost, "/api/users", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	res := decode[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, rr)
	return res.User.ID
}

func (a *testAPI) submit(t *testing.T, userID, word, roomID string) {
	t.Helper()
	body := `{"userId":"` + userID + `","word":"` + word + `","roomId":"` + roomID + `"}`
	rr := a.do(http.MethodPost, "/api/keywords", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}
