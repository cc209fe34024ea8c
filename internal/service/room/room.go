package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomcast/roomcast/internal/repository/room"
)

type CreateRoomParams struct {
	Name    string
	OwnerId string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Room, error) {
	createdAt := time.Now().Unix()

	for attempt := 0; attempt < s.roomIdAttempts; attempt++ {
		roomId := s.generator.GenerateRandomString(s.roomIdLength)

		err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
			RoomId:    roomId,
			Name:      params.Name,
			OwnerId:   params.OwnerId,
			CreatedAt: createdAt,
		})
		if errors.Is(err, room.ErrRoomAlreadyExists) {
			continue
		}
		if err != nil {
			return Room{}, fmt.Errorf("failed to create room: %w", err)
		}

		return Room{
			Id:        roomId,
			Name:      params.Name,
			OwnerId:   params.OwnerId,
			CreatedAt: createdAt,
		}, nil
	}

	// short ids exhausted, fall back to a globally unique one
	roomId := "ROOM-" + strings.ToUpper(uuid.NewString())
	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:    roomId,
		Name:      params.Name,
		OwnerId:   params.OwnerId,
		CreatedAt: createdAt,
	}); err != nil {
		return Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return Room{
		Id:        roomId,
		Name:      params.Name,
		OwnerId:   params.OwnerId,
		CreatedAt: createdAt,
	}, nil
}

func (s service) GetRoom(ctx context.Context, roomId string) (Room, error) {
	stored, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	participantCount, err := s.roomRepo.GetParticipantCount(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get participant count: %w", err)
	}

	return Room{
		Id:      roomId,
		Name:    stored.Name,
		OwnerId: stored.OwnerId,
		Playback: Playback{
			VideoUrl:    stored.VideoUrl,
			IsPlaying:   stored.IsPlaying,
			CurrentTime: stored.CurrentTime,
		},
		ParticipantCount: participantCount,
		CreatedAt:        stored.CreatedAt,
	}, nil
}

// ListRooms returns every room the user owns or participates in, oldest
// first. Index entries whose room has since expired are skipped.
func (s service) ListRooms(ctx context.Context, userId string) ([]Room, error) {
	ownedIds, err := s.roomRepo.GetOwnedRoomIds(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned room ids: %w", err)
	}
	joinedIds, err := s.roomRepo.GetParticipantRoomIds(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get joined room ids: %w", err)
	}

	seen := make(map[string]struct{}, len(ownedIds)+len(joinedIds))
	rooms := make([]Room, 0, len(ownedIds)+len(joinedIds))
	for _, roomId := range append(ownedIds, joinedIds...) {
		if _, ok := seen[roomId]; ok {
			continue
		}
		seen[roomId] = struct{}{}

		got, err := s.GetRoom(ctx, roomId)
		if errors.Is(err, ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get room %s: %w", roomId, err)
		}
		rooms = append(rooms, got)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt < rooms[j].CreatedAt
		}
		return rooms[i].Id < rooms[j].Id
	})
	return rooms, nil
}

type DeleteRoomParams struct {
	RoomId      string
	RequesterId string
}

func (s service) DeleteRoom(ctx context.Context, params *DeleteRoomParams) error {
	stored, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if stored.OwnerId != params.RequesterId {
		return ErrPermissionDenied
	}

	if err := s.roomRepo.RemoveRoom(ctx, params.RoomId); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}
