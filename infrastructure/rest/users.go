package rest

import (
	"context"

	"chat-client/domain"
)

// UserClient registers the externally signed-in user with the backend
// and returns the identity snapshot the engine attributes messages to.
type UserClient struct {
	*Client
}

func NewUserClient(c *Client) UserClient {
	return UserClient{Client: c}
}

// Registration is the profile handed over by the identity provider.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL,omitempty"`
	UID      string `json:"uid"`
}

type userResponse struct {
	Data struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		UID   string `json:"uid"`
	} `json:"data"`
}

func (u UserClient) Register(ctx context.Context, reg Registration) (domain.Identity, error) {
	var resp userResponse
	if err := u.postJSON(ctx, "/users", reg, &resp); err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		ID:          resp.Data.ID,
		DisplayName: resp.Data.Name,
	}, nil
}
