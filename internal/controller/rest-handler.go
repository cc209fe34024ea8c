package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/roomcast/roomcast/internal/service/room"
	"github.com/roomcast/roomcast/pkg/rest"
)

type createRoomInput struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	identity := c.resolveIdentity(r)

	var input createRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read create room body", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "create room validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	createdRoom, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Name:    input.Name,
		OwnerId: identity.UserId,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"room": createdRoom})
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	identity := c.resolveIdentity(r)

	rooms, err := c.roomService.ListRooms(r.Context(), identity.UserId)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list rooms", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	foundRoom, err := c.roomService.GetRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"room": foundRoom})
}

func (c controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	identity := c.resolveIdentity(r)

	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	err := c.roomService.DeleteRoom(r.Context(), &room.DeleteRoomParams{
		RoomId:      roomId,
		RequesterId: identity.UserId,
	})
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		case errors.Is(err, room.ErrPermissionDenied):
			rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "only room owner can delete the room"})
		default:
			c.logger.WarnContext(r.Context(), "failed to delete room", "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		}
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"message": "room deleted"})
}
