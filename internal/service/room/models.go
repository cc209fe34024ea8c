package room

// Playback is the authoritative video state tuple for a room.
type Playback struct {
	VideoUrl    string  `json:"video_url"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

type Room struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	OwnerId          string   `json:"owner_id"`
	Playback         Playback `json:"playback"`
	ParticipantCount int      `json:"participant_count"`
	CreatedAt        int64    `json:"created_at"`
}
