package service

import (
	"context"
	"strings"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// IdentityResolver turns approver references into concrete user identities.
// Resolution happens at evaluation time, never at configuration time, so
// role membership changes retroactively affect pending approvals.
type IdentityResolver interface {
	// ResolveApprovers expands a level's references into user ids. For
	// USERS levels the references are the result; for ROLES levels each
	// reference is matched case-insensitively against active employees'
	// app roles and job titles. Unmatched references contribute no members.
	ResolveApprovers(ctx context.Context, refs []string, levelType entity.LevelType) ([]string, error)

	// ResolveActiveApprovers expands references like ResolveApprovers and
	// additionally drops ids with no active directory entry. Quorum
	// decisions use this set: a deactivated approver left in a USERS level
	// must not stall an ALL quorum forever.
	ResolveActiveApprovers(ctx context.Context, refs []string, levelType entity.LevelType) ([]string, error)

	// ActorMatches reports whether one actor belongs to a level's approver
	// set. This tests the single actor directly instead of materializing
	// the whole set, which is equivalent in result but skips the
	// directory scan for USERS levels.
	ActorMatches(actor entity.Actor, level *entity.Level) bool
}

type identityResolver struct {
	directory port.Directory
	logger    Logger
}

// NewIdentityResolver creates a new IdentityResolver backed by the
// employee directory
func NewIdentityResolver(directory port.Directory, logger Logger) IdentityResolver {
	return &identityResolver{
		directory: directory,
		logger:    logger,
	}
}

// ResolveApprovers expands approver references to user ids
func (r *identityResolver) ResolveApprovers(ctx context.Context, refs []string, levelType entity.LevelType) ([]string, error) {
	if levelType == entity.LevelTypeUsers {
		// References are user ids already. Unknown or deactivated ids pass
		// through unresolved; filtering them is the caller's burden.
		return dedupe(refs), nil
	}

	employees, err := r.directory.ListActive(ctx)
	if err != nil {
		r.logger.Error("Failed to list active employees", "error", err)
		return nil, err
	}

	var ids []string
	for _, emp := range employees {
		for _, ref := range refs {
			if roleMatches(ref, emp) {
				ids = append(ids, emp.ID)
				break
			}
		}
	}

	return dedupe(ids), nil
}

// ResolveActiveApprovers expands references and keeps only ids backed by
// an active employee
func (r *identityResolver) ResolveActiveApprovers(ctx context.Context, refs []string, levelType entity.LevelType) ([]string, error) {
	resolved, err := r.ResolveApprovers(ctx, refs, levelType)
	if err != nil {
		return nil, err
	}
	if levelType != entity.LevelTypeUsers {
		// Role resolution already scans active employees only
		return resolved, nil
	}

	employees, err := r.directory.ListActive(ctx)
	if err != nil {
		r.logger.Error("Failed to list active employees", "error", err)
		return nil, err
	}
	active := make(map[string]bool, len(employees))
	for _, emp := range employees {
		active[emp.ID] = true
	}

	var ids []string
	for _, id := range resolved {
		if active[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ActorMatches reports whether the actor may act at the given level
func (r *identityResolver) ActorMatches(actor entity.Actor, level *entity.Level) bool {
	if level == nil {
		return false
	}

	switch level.LevelType {
	case entity.LevelTypeUsers:
		for _, id := range level.ApproverIDs {
			if id == actor.ID {
				return true
			}
		}
	case entity.LevelTypeRoles:
		emp := entity.Employee{
			ID:       actor.ID,
			AppRole:  actor.AppRole,
			JobTitle: actor.JobTitle,
		}
		for _, ref := range level.ApproverIDs {
			if roleMatches(ref, &emp) {
				return true
			}
		}
	}

	return false
}

// roleMatches tests one role reference against one employee. The literal
// role name super-admin additionally matches the Admin job-title bucket.
func roleMatches(ref string, emp *entity.Employee) bool {
	if strings.EqualFold(emp.AppRole, ref) || strings.EqualFold(emp.JobTitle, ref) {
		return true
	}
	if strings.EqualFold(ref, entity.RoleSuperAdmin) && strings.EqualFold(emp.JobTitle, entity.TitleAdmin) {
		return true
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

var _ IdentityResolver = (*identityResolver)(nil)
