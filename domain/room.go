package domain

type RoomID string

// Room is immutable once listed. The room list is fetched once per
// session start and its order is the display order.
type Room struct {
	ID    RoomID
	Title string
}
