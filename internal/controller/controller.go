package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/service/room"
	"github.com/roomcast/roomcast/pkg/validator"
	"github.com/roomcast/roomcast/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Room, error)
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	ListRooms(ctx context.Context, userId string) ([]room.Room, error)
	DeleteRoom(context.Context, *room.DeleteRoomParams) error
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	PlayVideo(context.Context, *room.PlaybackCommandParams) (room.PlaybackResponse, error)
	PauseVideo(context.Context, *room.PlaybackCommandParams) (room.PlaybackResponse, error)
	SeekVideo(context.Context, *room.SeekVideoParams) (room.PlaybackResponse, error)
	ChangeVideoUrl(context.Context, *room.ChangeVideoUrlParams) (room.PlaybackResponse, error)
	ChatMessage(context.Context, *room.ChatMessageParams) (room.ChatMessageResponse, error)
	RelaySignal(context.Context, *room.RelaySignalParams) (room.RelaySignalResponse, error)
	ConnectUser(context.Context, *room.ConnectUserParams) error
	DisconnectConn(ctx context.Context, conn *websocket.Conn) error
	DisconnectUser(context.Context, *room.DisconnectUserParams) ([]room.RoomLeft, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
