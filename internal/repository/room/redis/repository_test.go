package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/repository/room"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	s := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{
		Addr: s.Addr(),
	})
	return NewRepo(rc, time.Hour)
}

func TestRoomLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	setParams := &room.SetRoomParams{
		RoomId:    "ABCD1234",
		Name:      "movie night",
		OwnerId:   "user-a",
		CreatedAt: 1700000000,
	}
	require.NoError(t, repo.SetRoom(ctx, setParams))

	// ids are claimed exactly once
	err := repo.SetRoom(ctx, setParams)
	assert.ErrorIs(t, err, room.ErrRoomAlreadyExists)

	exists, err := repo.IsRoomExists(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := repo.GetRoom(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "movie night", stored.Name)
	assert.Equal(t, "user-a", stored.OwnerId)
	assert.Equal(t, int64(1700000000), stored.CreatedAt)
	assert.Equal(t, "", stored.VideoUrl)
	assert.False(t, stored.IsPlaying)

	require.NoError(t, repo.UpdatePlayback(ctx, &room.UpdatePlaybackParams{
		RoomId:      "ABCD1234",
		VideoUrl:    "https://example.com/v1",
		IsPlaying:   true,
		CurrentTime: 12.5,
	}))

	stored, err = repo.GetRoom(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v1", stored.VideoUrl)
	assert.True(t, stored.IsPlaying)
	assert.Equal(t, 12.5, stored.CurrentTime)

	require.NoError(t, repo.RemoveRoom(ctx, "ABCD1234"))
	_, err = repo.GetRoom(ctx, "ABCD1234")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	err = repo.RemoveRoom(ctx, "ABCD1234")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestSetRoomClaimIsFirstWriterWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:  "ABCD1234",
		Name:    "first",
		OwnerId: "user-a",
	}))

	// the same id claimed again, even by another owner, must lose
	err := repo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:  "ABCD1234",
		Name:    "second",
		OwnerId: "user-b",
	})
	assert.ErrorIs(t, err, room.ErrRoomAlreadyExists)

	stored, err := repo.GetRoom(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)
	assert.Equal(t, "user-a", stored.OwnerId)
}

func TestOwnedRoomIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetRoom(ctx, &room.SetRoomParams{RoomId: "ROOM0001", OwnerId: "user-a"}))
	require.NoError(t, repo.SetRoom(ctx, &room.SetRoomParams{RoomId: "ROOM0002", OwnerId: "user-a"}))
	require.NoError(t, repo.SetRoom(ctx, &room.SetRoomParams{RoomId: "ROOM0003", OwnerId: "user-b"}))

	ownedIds, err := repo.GetOwnedRoomIds(ctx, "user-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ROOM0001", "ROOM0002"}, ownedIds)

	// removing a room drops it from its owner's index
	require.NoError(t, repo.RemoveRoom(ctx, "ROOM0001"))
	ownedIds, err = repo.GetOwnedRoomIds(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROOM0002"}, ownedIds)

	ownedIds, err = repo.GetOwnedRoomIds(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROOM0003"}, ownedIds)
}

func TestUpdatePlaybackUnknownRoom(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdatePlayback(context.Background(), &room.UpdatePlaybackParams{
		RoomId:   "MISSING1",
		VideoUrl: "x",
	})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestParticipants(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetRoom(ctx, &room.SetRoomParams{RoomId: "ABCD1234", OwnerId: "user-a"}))

	for _, u := range []string{"user-a", "user-b"} {
		require.NoError(t, repo.AddParticipant(ctx, &room.ParticipantParams{RoomId: "ABCD1234", UserId: u}))
	}
	// adding twice does not grow the set
	require.NoError(t, repo.AddParticipant(ctx, &room.ParticipantParams{RoomId: "ABCD1234", UserId: "user-a"}))

	count, err := repo.GetParticipantCount(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ids, err := repo.GetParticipantIds(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-a", "user-b"}, ids)

	isParticipant, err := repo.IsParticipant(ctx, &room.ParticipantParams{RoomId: "ABCD1234", UserId: "user-b"})
	require.NoError(t, err)
	assert.True(t, isParticipant)

	// the reverse index answers "which rooms does this user sit in"
	roomIds, err := repo.GetParticipantRoomIds(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD1234"}, roomIds)

	require.NoError(t, repo.RemoveParticipant(ctx, &room.ParticipantParams{RoomId: "ABCD1234", UserId: "user-b"}))
	count, err = repo.GetParticipantCount(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	roomIds, err = repo.GetParticipantRoomIds(ctx, "user-b")
	require.NoError(t, err)
	assert.Empty(t, roomIds)

	// removing the room clears the participant set too
	require.NoError(t, repo.RemoveRoom(ctx, "ABCD1234"))
	count, err = repo.GetParticipantCount(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
