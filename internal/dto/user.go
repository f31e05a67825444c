package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Avatar      string      `json:"avatar"`
	Role        models.Role `json:"role"`
	HasPassword bool        `json:"hasPassword"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// DirectoryEntryDTO is a user as listed in assignment pickers
type DirectoryEntryDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// AuthResponse is returned by every sign-in flow
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Avatar:      user.Avatar,
		Role:        user.Role,
		HasPassword: user.HasPassword(),
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of User models
func ToUserDTOs(users []models.User) []UserDTO {
	result := make([]UserDTO, len(users))
	for i, user := range users {
		result[i] = ToUserDTO(user)
	}
	return result
}

// ToDirectoryDTOs converts users to directory entries
func ToDirectoryDTOs(users []models.User) []DirectoryEntryDTO {
	result := make([]DirectoryEntryDTO, len(users))
	for i, user := range users {
		result[i] = DirectoryEntryDTO{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Avatar:   user.Avatar,
		}
	}
	return result
}

// NewUserListResponse builds the paginated user list envelope
func NewUserListResponse(users []models.User, total int64, page utils.Page) UserListResponse {
	return UserListResponse{
		Users: ToUserDTOs(users),
		Total: total,
		Page:  page.Number,
		Pages: page.Count(total),
	}
}
