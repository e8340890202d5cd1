package ports

import (
	"context"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// ImportCandidate is one record of a bulk import. Password may be plain text
// or an existing bcrypt hash. Role is free text resolved with domain.ParseRole.
type ImportCandidate struct {
	Username string
	Email    string
	Password string
	Profile  domain.Profile
	Role     string
	Enabled  *bool
}

// ImportResult tallies one import call.
type ImportResult struct {
	Total    int
	Accepted int
	Rejected int
}

type ImportService interface {
	Import(ctx context.Context, candidates []ImportCandidate) ImportResult
}
