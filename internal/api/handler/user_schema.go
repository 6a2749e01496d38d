package handler

import "time"

// --- Requests ---

type createUserRequest struct {
	FullName        string  `json:"fullName"        validate:"max=200"`
	Email           string  `json:"email"           validate:"omitempty,email,max=254"`
	Password        string  `json:"password"        validate:"max=72"`
	Role            string  `json:"role"`
	ProfileImageURL *string `json:"profileImageUrl" validate:"omitempty,max=2048"`
}

// updateUserRequest distinguishes omitted keys from supplied ones.
type updateUserRequest struct {
	FullName        optional[string] `json:"fullName"`
	Email           optional[string] `json:"email"`
	Password        optional[string] `json:"password"`
	Role            optional[string] `json:"role"`
	ProfileImageURL optional[string] `json:"profileImageUrl"`
}

// updateUserCheck carries the supplied update values through the validator.
type updateUserCheck struct {
	FullName string `json:"fullName" validate:"max=200"`
	Email    string `json:"email"    validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Responses ---

type userResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Role            string    `json:"role"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type userEnvelope struct {
	User userResponse `json:"user"`
}

type userMessageResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type paginationResponse struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type listUsersResponse struct {
	Users      []userResponse     `json:"users"`
	Pagination paginationResponse `json:"pagination"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type uploadImageResponse struct {
	Message  string       `json:"message"`
	ImageURL string       `json:"imageUrl"`
	User     userResponse `json:"user"`
}
