package backend

import (
	"context"
	"errors"
	"net/http"

	"pisos_storefront/internal/models"
)

var ErrNoToken = errors.New("auth service returned no token")

type loginResponse struct {
	Token  string     `json:"token"`
	UserID flexString `json:"userId"`
	User   struct {
		ID      flexString `json:"id"`
		MongoID flexString `json:"_id"`
		Name    string     `json:"name"`
		Type    string     `json:"type"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token and the user profile.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	var resp loginResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds}, &resp); err != nil {
		return models.AuthResult{}, err
	}
	if resp.Token == "" {
		return models.AuthResult{}, ErrNoToken
	}

	userID := string(resp.UserID)
	if userID == "" {
		userID = string(resp.User.ID)
	}
	if userID == "" {
		userID = string(resp.User.MongoID)
	}
	userType := resp.User.Type
	if userType == "" {
		userType = "customer"
	}

	return models.AuthResult{
		Token:  resp.Token,
		UserID: userID,
		User:   models.User{Name: resp.User.Name, Type: userType},
	}, nil
}

func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/users/register", body: reg}, nil)
}
