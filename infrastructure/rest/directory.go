package rest

import (
	"context"

	"github.com/samber/lo"

	"chat-client/domain"
)

// DirectoryClient fetches the rooms available to this session. The
// backend's returned order is the display order and is preserved.
type DirectoryClient struct {
	*Client
}

func NewDirectoryClient(c *Client) DirectoryClient {
	return DirectoryClient{Client: c}
}

type roomDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (d DirectoryClient) FetchRooms(ctx context.Context) ([]domain.Room, error) {
	var dtos []roomDTO
	if err := d.getJSON(ctx, "/rooms", &dtos); err != nil {
		return nil, err
	}
	return lo.Map(dtos, func(dto roomDTO, _ int) domain.Room {
		return domain.Room{ID: domain.RoomID(dto.ID), Title: dto.Title}
	}), nil
}
