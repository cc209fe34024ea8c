package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/connection"
	"github.com/roomcast/roomcast/internal/repository/room"
	"github.com/roomcast/roomcast/pkg/randstr"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotParticipant   = errors.New("sender is not a room participant")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	IsRoomExists(ctx context.Context, roomId string) (bool, error)
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	RemoveRoom(ctx context.Context, roomId string) error
	UpdatePlayback(context.Context, *room.UpdatePlaybackParams) error
	GetOwnedRoomIds(ctx context.Context, userId string) ([]string, error)
	// participant
	AddParticipant(context.Context, *room.ParticipantParams) error
	RemoveParticipant(context.Context, *room.ParticipantParams) error
	IsParticipant(context.Context, *room.ParticipantParams) (bool, error)
	GetParticipantIds(ctx context.Context, roomId string) ([]string, error)
	GetParticipantCount(ctx context.Context, roomId string) (int, error)
	GetParticipantRoomIds(ctx context.Context, userId string) ([]string, error)
}

type iConnRepo interface {
	Add(*websocket.Conn, connection.Identity) error
	RemoveByConn(*websocket.Conn) error
	GetIdentity(*websocket.Conn) (connection.Identity, error)
	GetConn(userId string) (*websocket.Conn, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	RoomIdLength   int
	RoomIdAttempts int
}

type service struct {
	roomRepo       iRoomRepo
	connRepo       iConnRepo
	generator      iGenerator
	logger         *slog.Logger
	roomIdLength   int
	roomIdAttempts int
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger, cfg *Config) *service {
	s := service{
		roomRepo:       roomRepo,
		connRepo:       connRepo,
		logger:         logger,
		roomIdLength:   cfg.RoomIdLength,
		roomIdAttempts: cfg.RoomIdAttempts,
	}

	letterBytes := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
