package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"
)

func TestClaimStateOf(t *testing.T) {
	tests := []struct {
		name      string
		filmmaker *Filmmaker
		want      AccountClaimState
	}{
		{name: "no directory entry", filmmaker: nil, want: ClaimStateNotInDirectory},
		{name: "entry without password", filmmaker: &Filmmaker{ID: 1}, want: ClaimStateUnclaimed},
		{name: "entry with empty password", filmmaker: &Filmmaker{ID: 1, PasswordHash: ptr.To("")}, want: ClaimStateUnclaimed},
		{name: "entry with password", filmmaker: &Filmmaker{ID: 1, PasswordHash: ptr.To("$2a$10$hash")}, want: ClaimStateClaimed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClaimStateOf(tt.filmmaker))
		})
	}
}

func TestStatusValidity(t *testing.T) {
	for _, s := range SubmissionStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SubmissionStatus("archived").Valid())
	assert.True(t, EventStatusReviewing.Valid())
	assert.False(t, EventStatus("cancelled").Valid())
	assert.True(t, VoteDown.Valid())
	assert.False(t, Vote("sideways").Valid())
}
