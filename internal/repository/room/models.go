package room

// Room is the stored room record. Playback fields live on the room itself:
// there is exactly one authoritative copy per room.
type Room struct {
	Name        string  `redis:"name"`
	OwnerId     string  `redis:"owner_id"`
	VideoUrl    string  `redis:"video_url"`
	IsPlaying   bool    `redis:"is_playing"`
	CurrentTime float64 `redis:"current_time"`
	CreatedAt   int64   `redis:"created_at"`
}

type SetRoomParams struct {
	RoomId      string
	Name        string
	OwnerId     string
	VideoUrl    string
	IsPlaying   bool
	CurrentTime float64
	CreatedAt   int64
}

type UpdatePlaybackParams struct {
	RoomId      string
	VideoUrl    string
	IsPlaying   bool
	CurrentTime float64
}

type ParticipantParams struct {
	RoomId string
	UserId string
}
