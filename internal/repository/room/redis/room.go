package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/roomcast/roomcast/internal/repository/room"
)

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	roomKey := r.getRoomKey(params.RoomId)

	// HSETNX claims the id; a concurrent create loses the race and retries
	claimed, err := r.rc.HSetNX(ctx, roomKey, "owner_id", params.OwnerId).Result()
	if err != nil {
		return fmt.Errorf("failed to claim room id: %w", err)
	}
	if !claimed {
		return room.ErrRoomAlreadyExists
	}

	stored := room.Room{
		Name:        params.Name,
		OwnerId:     params.OwnerId,
		VideoUrl:    params.VideoUrl,
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
		CreatedAt:   params.CreatedAt,
	}
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, stored)
	pipe.Expire(ctx, roomKey, r.expireDuration)
	pipe.SAdd(ctx, r.getUserOwnedKey(params.OwnerId), params.RoomId)
	pipe.Expire(ctx, r.getUserOwnedKey(params.OwnerId), r.expireDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetOwnedRoomIds(ctx context.Context, userId string) ([]string, error) {
	roomIds, err := r.rc.SMembers(ctx, r.getUserOwnedKey(userId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get owned room ids: %w", err)
	}

	return roomIds, nil
}

func (r repo) IsRoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	roomKey := r.getRoomKey(roomId)

	res, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}
	if res == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var stored room.Room
	if err := r.rc.HGetAll(ctx, roomKey).Scan(&stored); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return stored, nil
}

func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	participantIds, err := r.rc.SMembers(ctx, r.getParticipantsKey(roomId)).Result()
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}

	ownerId, err := r.rc.HGet(ctx, r.getRoomKey(roomId), "owner_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get room owner: %w", err)
	}

	res, err := r.rc.Del(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}
	if res == 0 {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getParticipantsKey(roomId))
	for _, userId := range participantIds {
		pipe.SRem(ctx, r.getUserRoomsKey(userId), roomId)
	}
	if ownerId != "" {
		pipe.SRem(ctx, r.getUserOwnedKey(ownerId), roomId)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove participants: %w", err)
	}

	return nil
}

func (r repo) UpdatePlayback(ctx context.Context, params *room.UpdatePlaybackParams) error {
	roomKey := r.getRoomKey(params.RoomId)

	cmd := r.rc.Exists(ctx, roomKey)
	if err := cmd.Err(); err != nil {
		return err
	}
	if cmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey,
		"video_url", params.VideoUrl,
		"is_playing", params.IsPlaying,
		"current_time", params.CurrentTime,
	).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}
