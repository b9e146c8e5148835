package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/repository/memory"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
)

func TestParseMappingValue(t *testing.T) {
	testCases := []struct {
		input     string
		wantUID   types.SlackUserID
		wantEmail string
		wantErr   bool
	}{
		{input: "jane@example.com", wantEmail: "jane@example.com"},
		{input: "<mailto:jane@example.com|jane@example.com>", wantEmail: "jane@example.com"},
		{input: "<mailto:jane@example.com>", wantEmail: "jane@example.com"},
		{input: "<@U0123ABC>", wantUID: "U0123ABC"},
		{input: "U0123ABC", wantUID: "U0123ABC"},
		{input: "u0123abc", wantUID: "U0123ABC"},
		{input: "  U0123ABC  ", wantUID: "U0123ABC"},
		{input: "???", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		uid, email, err := usecase.ParseMappingValue(tc.input)
		if tc.wantErr {
			gt.Error(t, err)
			continue
		}
		gt.NoError(t, err)
		gt.Value(t, uid).Equal(tc.wantUID)
		gt.Value(t, email).Equal(tc.wantEmail)
	}
}

func TestSetMappingValidatesSlackUID(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	sl := newMockSlackService()
	sl.addUser(&slack.User{ID: "U0100", Name: "jane"})

	uc := usecase.New(repo, newMockGitlabService(), sl)

	mapping := gt.R1(uc.CreateMapping(ctx, "jdoe", "Jane Doe", "")).NoError(t)
	gt.True(t, mapping.Unresolved())

	// unknown UID is rejected
	_, err := uc.SetMapping(ctx, mapping.ID, "U9999")
	gt.Error(t, err)

	// known UID clears any email and resolves the row
	updated := gt.R1(uc.SetMapping(ctx, mapping.ID, "U0100")).NoError(t)
	gt.Value(t, updated.SlackUID).Equal(types.SlackUserID("U0100"))
	gt.Value(t, updated.SlackEmail).Equal("")
	gt.False(t, updated.Unresolved())

	// switching to an email clears the UID
	updated = gt.R1(uc.SetMapping(ctx, mapping.ID, "jane@example.com")).NoError(t)
	gt.Value(t, updated.SlackUID).Equal(types.SlackUserID(""))
	gt.Value(t, updated.SlackEmail).Equal("jane@example.com")
}
