package httpx

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/ghomren619/talk-caves/internal/room"
	"github.com/ghomren619/talk-caves/pkg/metrics"
)

// RoomsAPI answers room creation and lookup for the frontend lobby. It
// reads the same store the socket router mutates; every store method is
// internally locked so both paths share one mutation discipline.
type RoomsAPI struct {
	Store *room.Store
	Log   *slog.Logger
}

type createRoomResp struct {
	RoomID string `json:"room_id"`
}

type roomInfoResp struct {
	Exists     bool `json:"exists"`
	UsersCount int  `json:"users_count"`
}

// Create allocates an empty room and returns its code. The creator joins
// over the socket afterwards.
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	id := a.Store.CreateRoom()
	metrics.RoomsOpen.Inc()
	a.Log.Info("room.created", "room", id, "via", "rest")
	writeJSON(w, createRoomResp{RoomID: id})
}

// Info reports whether a room code is live and how many members it has.
// An unknown code answers exists=false rather than 404 so the lobby can
// show a friendly message.
func (a *RoomsAPI) Info(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	writeJSON(w, roomInfoResp{
		Exists:     a.Store.Exists(id),
		UsersCount: a.Store.MemberCount(id),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
