package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPending, true},
		{StatusAssigned, StatusPending, false},
		{StatusAssigned, StatusAssigned, true},
		{StatusInProgress, StatusNeedsAssistance, true},
		{StatusNeedsAssistance, StatusInProgress, true},
		{StatusCompleted, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusAssigned, false},
		{StatusPending, "Lost", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("Water Bottles"), FoldName("  WATER bottles "))
	assert.Equal(t, FoldName("Straße"), FoldName("STRASSE"))
	assert.NotEqual(t, FoldName("Water"), FoldName("Waters"))
}
