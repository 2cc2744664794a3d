package ipa

import (
	"context"
	"reflect"
	"testing"
)

func TestUserFindWireFormat(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	if _, err := client.UserFind(context.Background(), 25); err != nil {
		t.Fatalf("UserFind() error = %v", err)
	}

	call := fake.lastCall(t)
	if call.Method != "user_find" {
		t.Errorf("method = %q, want user_find", call.Method)
	}
	if len(call.Args) != 0 {
		t.Errorf("args = %v, want empty", call.Args)
	}
	if call.Options["sizelimit"] != float64(25) {
		t.Errorf("sizelimit = %v, want 25", call.Options["sizelimit"])
	}
}

func TestUserShowWireFormat(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	if _, err := client.UserShow(context.Background(), "alice"); err != nil {
		t.Fatalf("UserShow() error = %v", err)
	}

	call := fake.lastCall(t)
	if call.Method != "user_show" {
		t.Errorf("method = %q, want user_show", call.Method)
	}
	if !reflect.DeepEqual(call.Args, []any{"alice"}) {
		t.Errorf("args = %v, want [alice]", call.Args)
	}
}

func TestUserAddPassesBlankOptionals(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	req := &UserAddRequest{UID: "alice", GivenName: "Alice", Surname: "Archer"}
	if _, err := client.UserAdd(context.Background(), req); err != nil {
		t.Fatalf("UserAdd() error = %v", err)
	}

	call := fake.lastCall(t)
	if !reflect.DeepEqual(call.Args, []any{"alice"}) {
		t.Errorf("args = %v, want [alice]", call.Args)
	}
	if call.Options["givenname"] != "Alice" || call.Options["sn"] != "Archer" {
		t.Errorf("options = %v", call.Options)
	}

	// Blank optional values travel to the backend rather than being elided.
	for _, key := range []string{"mail", "userpassword"} {
		got, present := call.Options[key]
		if !present {
			t.Errorf("option %q missing, want blank value", key)
		}
		if got != "" {
			t.Errorf("option %q = %v, want blank", key, got)
		}
	}
}

func TestUserAddRequiresUID(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	if _, err := client.UserAdd(context.Background(), &UserAddRequest{}); err == nil {
		t.Error("UserAdd() without uid should fail")
	}
	if _, err := client.UserAdd(context.Background(), nil); err == nil {
		t.Error("UserAdd(nil) should fail")
	}
	if len(fake.rpcCalls) != 0 {
		t.Errorf("backend calls = %d, want 0", len(fake.rpcCalls))
	}
}

func TestUserModWireFormat(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	mail := "alice@example.test"
	if _, err := client.UserMod(context.Background(), "alice", &UserModFields{Mail: &mail}); err != nil {
		t.Fatalf("UserMod() error = %v", err)
	}

	call := fake.lastCall(t)
	if call.Method != "user_mod" {
		t.Errorf("method = %q, want user_mod", call.Method)
	}
	if !reflect.DeepEqual(call.Args, []any{"alice"}) {
		t.Errorf("args = %v, want [alice]", call.Args)
	}
	if call.Options["mail"] != mail {
		t.Errorf("mail = %v, want %q", call.Options["mail"], mail)
	}
	if _, present := call.Options["givenname"]; present {
		t.Error("unset fields must not be sent")
	}
}

func TestUserModRejectsEmptyFields(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	_, err := client.UserMod(context.Background(), "alice", &UserModFields{})

	if err == nil {
		t.Fatal("UserMod() with no fields should fail")
	}
	if GetErrorCategory(err) != ErrorCategoryValidation {
		t.Errorf("category = %s, want validation", GetErrorCategory(err))
	}
	if len(fake.rpcCalls) != 0 {
		t.Errorf("backend calls = %d, want 0", len(fake.rpcCalls))
	}
}

func TestGroupFindFilterCombinations(t *testing.T) {
	tests := []struct {
		name     string
		filter   *GroupFilter
		wantOpts map[string]any
	}{
		{
			name:     "nil filter uses default size limit",
			filter:   nil,
			wantOpts: map[string]any{"sizelimit": float64(DefaultSizeLimit)},
		},
		{
			name:     "size limit only",
			filter:   &GroupFilter{SizeLimit: 10},
			wantOpts: map[string]any{"sizelimit": float64(10)},
		},
		{
			name:     "name filter",
			filter:   &GroupFilter{SizeLimit: 10, Name: "admins"},
			wantOpts: map[string]any{"sizelimit": float64(10), "cn": "admins"},
		},
		{
			name:     "description filter",
			filter:   &GroupFilter{SizeLimit: 10, Description: "ops teams"},
			wantOpts: map[string]any{"sizelimit": float64(10), "description": "ops teams"},
		},
		{
			name:     "both filters",
			filter:   &GroupFilter{SizeLimit: 10, Name: "admins", Description: "ops teams"},
			wantOpts: map[string]any{"sizelimit": float64(10), "cn": "admins", "description": "ops teams"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeIPA(t)
			client := fake.newClient(t)

			if _, err := client.GroupFind(context.Background(), tt.filter); err != nil {
				t.Fatalf("GroupFind() error = %v", err)
			}

			call := fake.lastCall(t)
			if call.Method != "group_find" {
				t.Errorf("method = %q, want group_find", call.Method)
			}

			// The injected version option rides along with every call.
			tt.wantOpts["version"] = "2.5"
			if !reflect.DeepEqual(call.Options, tt.wantOpts) {
				t.Errorf("options = %v, want %v", call.Options, tt.wantOpts)
			}
		})
	}
}

func TestGroupAddPassesBlankDescription(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	if _, err := client.GroupAdd(context.Background(), "devs", ""); err != nil {
		t.Fatalf("GroupAdd() error = %v", err)
	}

	call := fake.lastCall(t)
	if !reflect.DeepEqual(call.Args, []any{"devs"}) {
		t.Errorf("args = %v, want [devs]", call.Args)
	}
	got, present := call.Options["description"]
	if !present || got != "" {
		t.Errorf("description = %v (present=%v), want blank", got, present)
	}
}

func TestGroupMembershipWireFormat(t *testing.T) {
	fake := newFakeIPA(t)
	client := fake.newClient(t)

	if _, err := client.GroupAddMember(context.Background(), "devs", "alice"); err != nil {
		t.Fatalf("GroupAddMember() error = %v", err)
	}
	call := fake.lastCall(t)
	if call.Method != "group_add_member" {
		t.Errorf("method = %q, want group_add_member", call.Method)
	}
	if !reflect.DeepEqual(call.Options["user"], []any{"alice"}) {
		t.Errorf("user option = %v, want [alice]", call.Options["user"])
	}

	if _, err := client.GroupRemoveMember(context.Background(), "devs", "alice"); err != nil {
		t.Fatalf("GroupRemoveMember() error = %v", err)
	}
	call = fake.lastCall(t)
	if call.Method != "group_remove_member" {
		t.Errorf("method = %q, want group_remove_member", call.Method)
	}
}
