package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohammedsw45/blue-basks/models"
)

func boolPtr(b bool) *bool { return &b }

func TestLeaderAfterUpdate(t *testing.T) {
	tests := []struct {
		name   string
		member models.Member
		input  UpdateMemberInput
		want   bool
	}{
		{
			name:   "promote active member to leader",
			member: models.Member{IsActive: true},
			input:  UpdateMemberInput{IsTeamLeader: boolPtr(true)},
			want:   true,
		},
		{
			name:   "reactivate deactivated leader",
			member: models.Member{IsTeamLeader: true},
			input:  UpdateMemberInput{IsActive: boolPtr(true)},
			want:   true,
		},
		{
			name:   "deactivate leader",
			member: models.Member{IsTeamLeader: true, IsActive: true},
			input:  UpdateMemberInput{IsActive: boolPtr(false)},
			want:   false,
		},
		{
			name:   "demote leader while reactivating",
			member: models.Member{IsTeamLeader: true},
			input:  UpdateMemberInput{IsTeamLeader: boolPtr(false), IsActive: boolPtr(true)},
			want:   false,
		},
		{
			name:   "leader flag on inactive member",
			member: models.Member{},
			input:  UpdateMemberInput{IsTeamLeader: boolPtr(true)},
			want:   false,
		},
		{
			name:   "no flags touched on active leader",
			member: models.Member{IsTeamLeader: true, IsActive: true},
			input:  UpdateMemberInput{},
			want:   true,
		},
		{
			name:   "no flags touched on plain member",
			member: models.Member{IsActive: true},
			input:  UpdateMemberInput{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leaderAfterUpdate(&tt.member, tt.input))
		})
	}
}
