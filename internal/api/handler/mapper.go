package handler

import (
	"time"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

const dateLayout = "2006-01-02"

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		City:        u.City,
		Country:     u.Country,
		Avatar:      u.Avatar,
		Company:     u.Company,
		JobPosition: u.JobPosition,
		Mobile:      u.Mobile,
		Role:        u.Role.String(),
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
	if u.BirthDate != nil {
		resp.BirthDate = u.BirthDate.Format(dateLayout)
	}
	return resp
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toLoginResponse(res *ports.LoginResult) loginResponse {
	return loginResponse{
		AccessToken: res.Token,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		ID:          res.User.ID,
		Username:    res.User.Username,
		Email:       res.User.Email,
		Roles:       []string{res.User.Role.String()},
	}
}

// toProfileUpdate maps an already validated request; birthDate has passed the
// datetime check.
func toProfileUpdate(r updateProfileRequest) domain.ProfileUpdate {
	update := domain.ProfileUpdate{
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		City:        r.City,
		Country:     r.Country,
		Avatar:      r.Avatar,
		Company:     r.Company,
		JobPosition: r.JobPosition,
		Mobile:      r.Mobile,
	}
	if r.BirthDate != nil {
		if bd, err := time.Parse(dateLayout, *r.BirthDate); err == nil {
			update.BirthDate = &bd
		}
	}
	return update
}

func toImportCandidate(r importRecord) ports.ImportCandidate {
	c := ports.ImportCandidate{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Role:     string(r.Role),
		Enabled:  r.Enabled,
		Profile: domain.Profile{
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			City:        r.City,
			Country:     r.Country,
			Avatar:      r.Avatar,
			Company:     r.Company,
			JobPosition: r.JobPosition,
			Mobile:      r.Mobile,
		},
	}
	if bd, ok := parseBirthDate(r.BirthDate); ok {
		c.Profile.BirthDate = &bd
	}
	return c
}

// parseBirthDate accepts a plain date or a full RFC 3339 timestamp.
func parseBirthDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
