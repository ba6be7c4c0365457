package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   []handLine
	}{
		{
			name: "dealer and one player",
			status: "<-- Player 0 hand: 0 KH 8H \n" +
				"<-- Player 1 hand: 0 TH 9H \n",
			want: []handLine{
				{playerID: 0, handIndex: 0, cards: []string{"KH", "8H"}},
				{playerID: 1, handIndex: 0, cards: []string{"TH", "9H"}},
			},
		},
		{
			name: "split hands",
			status: "<-- Player 2 hand: 0 8S 3D \n" +
				"<-- Player 2 hand: 1 8C 5H \n",
			want: []handLine{
				{playerID: 2, handIndex: 0, cards: []string{"8S", "3D"}},
				{playerID: 2, handIndex: 1, cards: []string{"8C", "5H"}},
			},
		},
		{
			name:   "garbage is skipped",
			status: "rejected: bad action\nnot a hand line\n",
			want:   nil,
		},
		{
			name:   "empty broadcast",
			status: "",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseStatus(tt.status)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(handLine{})); diff != "" {
				t.Errorf("parseStatus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
