package service

import (
	"context"
	"testing"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

func testDirectory() *mockDirectory {
	return &mockDirectory{employees: []*entity.Employee{
		{ID: "u1", DisplayName: "Ana Reyes", AppRole: "PM", JobTitle: "Project Manager", IsActive: true},
		{ID: "u2", DisplayName: "Bo Chen", AppRole: "foreman", JobTitle: "Foreman", IsActive: true},
		{ID: "u3", DisplayName: "Cal Ortiz", AppRole: "", JobTitle: "Admin", IsActive: true},
		{ID: "u4", DisplayName: "Dee Park", AppRole: "PM", JobTitle: "Project Manager", IsActive: false},
	}}
}

func TestResolveApprovers_UsersPassThrough(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	// Unknown ids pass through unresolved; duplicates collapse
	ids, err := resolver.ResolveApprovers(context.Background(), []string{"u1", "ghost", "u1"}, entity.LevelTypeUsers)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "ghost" {
		t.Errorf("ResolveApprovers() = %v, want [u1 ghost]", ids)
	}
}

func TestResolveApprovers_RolesCaseInsensitive(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	ids, err := resolver.ResolveApprovers(context.Background(), []string{"pm"}, entity.LevelTypeRoles)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	// u4 has the role too but is inactive
	if len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("ResolveApprovers(pm) = %v, want [u1]", ids)
	}
}

func TestResolveApprovers_JobTitleMatch(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	ids, err := resolver.ResolveApprovers(context.Background(), []string{"foreman"}, entity.LevelTypeRoles)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "u2" {
		t.Errorf("ResolveApprovers(foreman) = %v, want [u2]", ids)
	}
}

func TestResolveApprovers_SuperAdminAlias(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	ids, err := resolver.ResolveApprovers(context.Background(), []string{"super-admin"}, entity.LevelTypeRoles)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "u3" {
		t.Errorf("ResolveApprovers(super-admin) = %v, want [u3]", ids)
	}
}

func TestResolveActiveApprovers_DropsInactiveUsers(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	// u4 is deactivated, ghost was never in the directory
	ids, err := resolver.ResolveActiveApprovers(context.Background(), []string{"u1", "u4", "ghost"}, entity.LevelTypeUsers)
	if err != nil {
		t.Fatalf("ResolveActiveApprovers() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("ResolveActiveApprovers() = %v, want [u1]", ids)
	}
}

func TestResolveApprovers_UnmatchedRoleContributesNothing(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	ids, err := resolver.ResolveApprovers(context.Background(), []string{"surveyor"}, entity.LevelTypeRoles)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ResolveApprovers(surveyor) = %v, want empty", ids)
	}
}

func TestActorMatches(t *testing.T) {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})

	usersLevel := &entity.Level{LevelNumber: 1, LevelType: entity.LevelTypeUsers, ApproverIDs: []string{"u1", "u2"}}
	rolesLevel := &entity.Level{LevelNumber: 1, LevelType: entity.LevelTypeRoles, ApproverIDs: []string{"pm"}}
	aliasLevel := &entity.Level{LevelNumber: 1, LevelType: entity.LevelTypeRoles, ApproverIDs: []string{"super-admin"}}

	tests := []struct {
		name  string
		actor entity.Actor
		level *entity.Level
		want  bool
	}{
		{"direct id match", entity.Actor{ID: "u1"}, usersLevel, true},
		{"id not listed", entity.Actor{ID: "u9"}, usersLevel, false},
		{"role case-insensitive", entity.Actor{ID: "u9", AppRole: "PM"}, rolesLevel, true},
		{"title case-insensitive", entity.Actor{ID: "u9", JobTitle: "pm"}, rolesLevel, true},
		{"role mismatch", entity.Actor{ID: "u9", AppRole: "foreman"}, rolesLevel, false},
		{"super-admin alias via title", entity.Actor{ID: "u9", JobTitle: "admin"}, aliasLevel, true},
		{"nil level", entity.Actor{ID: "u1"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.ActorMatches(tt.actor, tt.level); got != tt.want {
				t.Errorf("ActorMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}
