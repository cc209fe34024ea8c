package redis

import (
	"context"
	"fmt"

	"github.com/roomcast/roomcast/internal/repository/room"
)

func (r repo) AddParticipant(ctx context.Context, params *room.ParticipantParams) error {
	participantsKey := r.getParticipantsKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.SAdd(ctx, participantsKey, params.UserId)
	pipe.Expire(ctx, participantsKey, r.expireDuration)
	pipe.SAdd(ctx, r.getUserRoomsKey(params.UserId), params.RoomId)
	pipe.Expire(ctx, r.getUserRoomsKey(params.UserId), r.expireDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	return nil
}

func (r repo) RemoveParticipant(ctx context.Context, params *room.ParticipantParams) error {
	pipe := r.rc.TxPipeline()
	pipe.SRem(ctx, r.getParticipantsKey(params.RoomId), params.UserId)
	pipe.SRem(ctx, r.getUserRoomsKey(params.UserId), params.RoomId)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}

func (r repo) IsParticipant(ctx context.Context, params *room.ParticipantParams) (bool, error) {
	isMember, err := r.rc.SIsMember(ctx, r.getParticipantsKey(params.RoomId), params.UserId).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return isMember, nil
}

func (r repo) GetParticipantIds(ctx context.Context, roomId string) ([]string, error) {
	participantIds, err := r.rc.SMembers(ctx, r.getParticipantsKey(roomId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	return participantIds, nil
}

func (r repo) GetParticipantCount(ctx context.Context, roomId string) (int, error) {
	count, err := r.rc.SCard(ctx, r.getParticipantsKey(roomId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get participant count: %w", err)
	}

	return int(count), nil
}

func (r repo) GetParticipantRoomIds(ctx context.Context, userId string) ([]string, error) {
	roomIds, err := r.rc.SMembers(ctx, r.getUserRoomsKey(userId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	return roomIds, nil
}
