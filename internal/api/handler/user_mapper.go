package handler

import (
	"strconv"
	"strings"

	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/ports"
)

// toUserResponse is the only way a user leaves the API; it has no password field.
func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Role:            string(u.Role),
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toListUsersResponse(res *ports.ListUsersResult) listUsersResponse {
	users := make([]userResponse, 0, len(res.Users))
	for _, u := range res.Users {
		users = append(users, toUserResponse(u))
	}
	return listUsersResponse{
		Users: users,
		Pagination: paginationResponse{
			CurrentPage:  res.Page,
			TotalPages:   res.TotalPages,
			TotalItems:   res.TotalItems,
			ItemsPerPage: res.Limit,
			HasNextPage:  res.HasNextPage,
			HasPrevPage:  res.HasPrevPage,
		},
	}
}

func toCreateUserInput(req createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		Role:            domain.Role(strings.TrimSpace(req.Role)),
		ProfileImageURL: req.ProfileImageURL,
	}
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	in := ports.UpdateUserInput{
		FullName:        presentText(req.FullName),
		Email:           presentText(req.Email),
		Password:        presentText(req.Password),
		ProfileImageURL: nullableText(req.ProfileImageURL),
	}
	if role := presentText(req.Role); role.Set {
		in.Role = domain.SetTo(domain.Role(strings.TrimSpace(role.Value)))
	}
	return in
}

// toListUsersInput reads the list query. Malformed numbers fall back to the defaults.
func toListUsersInput(page, limit, search, role string) ports.ListUsersInput {
	return ports.ListUsersInput{
		Page:   atoiOrZero(page),
		Limit:  atoiOrZero(limit),
		Search: search,
		Role:   domain.Role(strings.TrimSpace(role)),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
