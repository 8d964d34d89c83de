package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/keyword-synergy/internal/handler"
	"github.com/sakif/keyword-synergy/internal/model"
)

func TestDrawHandler_HandleDraw(t *testing.T) {
	t.Run("insufficient pool", func(t *testing.T) {
		api := newTestAPI(t)
		userID := api.createUser(t, "Aiko")
		api.submit(t, userID, "solo", "")

		rr := api.do(http.MethodPost, "/api/draw", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		res := decode[handler.ErrorResponse](t, rr)
		assert.Equal(t, "insufficient_pool", res.Error)

		history := api.do(http.MethodGet, "/api/history", "")
		assert.JSONEq(t, `{"history":[]}`, history.Body.String())
	})

	t.Run("global pool without body", func(t *testing.T) {
		api := newTestAPI(t)
		userID := api.createUser(t, "Aiko")
		for _, w := range []string{"AI", "sea", "lamp"} {
			api.submit(t, userID, w, "")
		}

		rr := api.do(http.MethodPost, "/api/draw", "")

		require.Equal(t, http.StatusOK, rr.Code)
		res := decode[struct {
			Result model.DrawResult `json:"result"`
		}](t, rr)
		assert.NotEqual(t, res.Result.KeywordA, res.Result.KeywordB)
		assert.Contains(t, []string{"AI", "sea", "lamp"}, res.Result.KeywordA)
		assert.Contains(t, []string{"AI", "sea", "lamp"}, res.Result.KeywordB)

		history := api.do(http.MethodGet, "/api/history", "")
		hres := decode[struct {
			History []model.HistoryEntry `json:"history"`
		}](t, history)
		require.Len(t, hres.History, 1)
		assert.Equal(t, res.Result.KeywordA, hres.History[0].KeywordA)
		assert.Equal(t, res.Result.KeywordB, hres.History[0].KeywordB)
	})

	t.Run("room pool", func(t *testing.T) {
		api := newTestAPI(t)
		m := createRoom(t, api)
		api.submit(t, m.User.ID, "red", m.Room.ID)
		api.submit(t, m.User.ID, "blue", m.Room.ID)

		rr := api.do(http.MethodPost, "/api/draw", `{"roomId":"`+m.Room.ID+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		global := api.do(http.MethodGet, "/api/history", "")
		assert.JSONEq(t, `{"history":[]}`, global.Body.String())

		room := api.do(http.MethodGet, "/api/history?room_id="+m.Room.ID, "")
		hres := decode[struct {
			History []model.HistoryEntry `json:"history"`
		}](t, room)
		require.Len(t, hres.History, 1)
		assert.Equal(t, m.Room.ID, hres.History[0].RoomID)
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodPost, "/api/draw", `{"roomId":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
