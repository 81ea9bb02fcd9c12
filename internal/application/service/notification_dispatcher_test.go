package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

func dispatcherFixture(repo *mockNotificationRepo) NotificationDispatcher {
	resolver := NewIdentityResolver(testDirectory(), nopLogger{})
	return NewNotificationDispatcher(repo, resolver, nopLogger{})
}

func TestDispatch_OneRowPerResolvedRecipient(t *testing.T) {
	repo := &mockNotificationRepo{}
	dispatcher := dispatcherFixture(repo)

	err := dispatcher.Dispatch(context.Background(), Directive{
		Refs:      []string{"u1", "u2"},
		LevelType: entity.LevelTypeUsers,
		Kind:      entity.NotificationKindApprovalRequest,
		Title:     "timesheet ready for Level 1 approval",
		Body:      "body",
		Link:      "/records/rec-1",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(repo.notifications) != 2 {
		t.Fatalf("stored %d notifications, want 2", len(repo.notifications))
	}
	for _, n := range repo.notifications {
		if n.ID == "" {
			t.Error("stored notification missing id")
		}
		if n.IsRead {
			t.Error("stored notification should start unread")
		}
		if n.Kind != entity.NotificationKindApprovalRequest {
			t.Errorf("kind = %s, want %s", n.Kind, entity.NotificationKindApprovalRequest)
		}
	}
}

func TestDispatch_ExpandsRolesBeforeStorage(t *testing.T) {
	repo := &mockNotificationRepo{}
	dispatcher := dispatcherFixture(repo)

	err := dispatcher.Dispatch(context.Background(), Directive{
		Refs:      []string{"pm", "project manager"},
		LevelType: entity.LevelTypeRoles,
		Kind:      entity.NotificationKindApprovalRequest,
		Title:     "t",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// u1 matches both references but duplicates collapse to one row,
	// and the stored row names the user, never the role
	if len(repo.notifications) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(repo.notifications))
	}
	if repo.notifications[0].RecipientID != "u1" {
		t.Errorf("recipient = %s, want u1", repo.notifications[0].RecipientID)
	}
}

func TestDispatchAll_SwallowsFailures(t *testing.T) {
	repo := &mockNotificationRepo{createErr: errors.New("inbox unavailable")}
	dispatcher := dispatcherFixture(repo)

	// Must not panic or surface the error; the state change already committed
	dispatcher.DispatchAll(context.Background(), []Directive{
		{Refs: []string{"u1"}, LevelType: entity.LevelTypeUsers, Kind: entity.NotificationKindApproved},
	})

	if len(repo.notifications) != 0 {
		t.Errorf("stored %d notifications, want 0", len(repo.notifications))
	}
}

func TestInbox_ListUnreadAndMarkRead(t *testing.T) {
	repo := &mockNotificationRepo{}
	dispatcher := dispatcherFixture(repo)
	ctx := context.Background()

	if err := dispatcher.Dispatch(ctx, Directive{
		Refs: []string{"u1"}, LevelType: entity.LevelTypeUsers,
		Kind: entity.NotificationKindApproved, Title: "approved",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	unread, err := dispatcher.ListUnread(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUnread() error = %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("unread = %d, want 1", len(unread))
	}

	if err := dispatcher.MarkRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	unread, _ = dispatcher.ListUnread(ctx, "u1")
	if len(unread) != 0 {
		t.Errorf("unread after MarkRead = %d, want 0", len(unread))
	}
}
