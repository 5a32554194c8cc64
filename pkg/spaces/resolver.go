package spaces

import (
	"errors"

	"notespace-backend/pkg/database"
	"notespace-backend/pkg/models"
)

var (
	// ErrSpaceNotFound 空间不存在
	ErrSpaceNotFound = errors.New("space not found")
	// ErrAccessDenied 空间存在但用户没有访问资格
	ErrAccessDenied = errors.New("access to space denied")
)

// Access is a granted ALLOW decision: the resolved space plus the
// membership row that justified it. Both membership fields are nil when
// the caller is the personal owner.
type Access struct {
	Space           *models.Space                  `json:"space"`
	OrgMembership   *models.OrganizationMembership `json:"organization_membership,omitempty"`
	SpaceMembership *models.SpaceMembership        `json:"membership,omitempty"`
}

// Resolver decides whether a user may modify a space.
type Resolver struct {
	db database.DatabaseInterface
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(db database.DatabaseInterface) *Resolver {
	return &Resolver{db: db}
}

// VerifyUserCanModifySpace resolves the space and checks the user's
// relationship to it. The checks run in a fixed order and the first match
// wins:
//
//  1. unknown space id            -> ErrSpaceNotFound
//  2. organization-owned space    -> organization membership decides;
//     a matching user_id on the space does NOT grant access here
//  3. personal owner              -> allowed
//  4. space membership row        -> allowed, otherwise ErrAccessDenied
//
// Keep this a sequential chain of early returns. Folding the branches
// into one OR would let a stale user_id on an organization space bypass
// organization membership.
func (r *Resolver) VerifyUserCanModifySpace(userID, spaceID string) (*Access, error) {
	space, err := r.db.GetSpaceByID(spaceID)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, ErrSpaceNotFound
	}

	if space.OrganizationID != "" {
		m, err := r.db.GetOrganizationMembership(userID, space.OrganizationID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrAccessDenied
		}
		return &Access{Space: space, OrgMembership: m}, nil
	}

	if space.UserID == userID {
		return &Access{Space: space}, nil
	}

	m, err := r.db.GetSpaceMembership(userID, spaceID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrAccessDenied
	}
	return &Access{Space: space, SpaceMembership: m}, nil
}
