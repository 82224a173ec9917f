package scoring

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func freshLead(score int) Lead {
	return Lead{Score: score, CreatedAt: now.AddDate(0, 0, -2)}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{90, TierGreen},
		{80, TierGreen},
		{79, TierYellow},
		{60, TierYellow},
		{59, TierRed},
		{0, TierRed},
	}
	for _, tc := range cases {
		if got := TierFor(tc.score); got != tc.want {
			t.Fatalf("TierFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAdjust_InboundInteraction(t *testing.T) {
	res := Adjust(freshLead(50), Interaction{Direction: "inbound"}, now)
	if res.Delta != 8 {
		t.Fatalf("expected delta 8, got %d", res.Delta)
	}
	if res.NewScore != 58 {
		t.Fatalf("expected score 58, got %d", res.NewScore)
	}
	if res.Reason != "lead-initiated, high intent" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
}

func TestAdjust_ChannelBonusStacksOnDirection(t *testing.T) {
	cases := []struct {
		channel string
		want    int
	}{
		{"whatsapp", 3 + 5},
		{"phone", 3 + 7},
		{"in_person", 3 + 12},
		{"In-Person", 3 + 12}, // display forms normalize
		{"carrier_pigeon", 3}, // unknown channel contributes zero
	}
	for _, tc := range cases {
		res := Adjust(freshLead(50), Interaction{Direction: "outbound", Channel: tc.channel}, now)
		if res.Delta != tc.want {
			t.Fatalf("channel %q: expected delta %d, got %d", tc.channel, tc.want, res.Delta)
		}
	}
}

func TestAdjust_KindDeltasStackAndReasonWins(t *testing.T) {
	// inbound(+8) + in_person(+12) + test_drive(+20) all stack.
	res := Adjust(freshLead(10), Interaction{Direction: "inbound", Channel: "in_person", Kind: "test_drive"}, now)
	if res.Delta != 40 {
		t.Fatalf("expected delta 40, got %d", res.Delta)
	}
	if res.Reason != "test drive completed" {
		t.Fatalf("kind reason should win, got %q", res.Reason)
	}
	if res.NewTier != TierRed {
		t.Fatalf("score 50 is red, got %s", res.NewTier)
	}
}

func TestAdjust_FollowUp(t *testing.T) {
	if res := Adjust(freshLead(50), FollowUp{Completed: true}, now); res.Delta != 6 {
		t.Fatalf("completed follow-up: expected +6, got %d", res.Delta)
	}
	if res := Adjust(freshLead(50), FollowUp{Completed: false}, now); res.Delta != -3 {
		t.Fatalf("missed follow-up: expected -3, got %d", res.Delta)
	}
}

func TestAdjust_PreferenceChange(t *testing.T) {
	cases := []struct {
		name  string
		event PreferenceChange
		want  int
	}{
		{"future to immediate", PreferenceChange{OldTimeframe: "future", NewTimeframe: "immediate"}, 15},
		{"immediate to future", PreferenceChange{OldTimeframe: "immediate", NewTimeframe: "future"}, -10},
		{"to campaign plan", PreferenceChange{OldFinancing: "largo_plazo", NewFinancing: "campaign"}, 12},
		{"away from campaign plan", PreferenceChange{OldFinancing: "campaign", NewFinancing: "largo_plazo"}, -8},
		{"both clauses stack", PreferenceChange{OldTimeframe: "future", NewTimeframe: "immediate", OldFinancing: "largo_plazo", NewFinancing: "campaign"}, 27},
		{"unchanged financing", PreferenceChange{OldFinancing: "campaign", NewFinancing: "campaign"}, 0},
	}
	for _, tc := range cases {
		if res := Adjust(freshLead(50), tc.event, now); res.Delta != tc.want {
			t.Fatalf("%s: expected delta %d, got %d", tc.name, tc.want, res.Delta)
		}
	}
}

func TestAdjust_Edit(t *testing.T) {
	cases := []struct {
		name  string
		event Edit
		want  int
	}{
		{"model changed", Edit{OldModel: "MT-07", NewModel: "MT-09"}, 3},
		{"model cleared", Edit{OldModel: "MT-07", NewModel: ""}, 0},
		{"timeframe to immediate", Edit{OldTimeframe: "soon", NewTimeframe: "immediate"}, 15},
		{"timeframe to future", Edit{OldTimeframe: "soon", NewTimeframe: "future"}, -10},
		{"financing to campaign", Edit{OldFinancing: "largo_plazo", NewFinancing: "campaign"}, 12},
		{"all stacked", Edit{OldModel: "MT-07", NewModel: "MT-09", OldTimeframe: "soon", NewTimeframe: "immediate", OldFinancing: "", NewFinancing: "campaign"}, 30},
	}
	for _, tc := range cases {
		if res := Adjust(freshLead(50), tc.event, now); res.Delta != tc.want {
			t.Fatalf("%s: expected delta %d, got %d", tc.name, tc.want, res.Delta)
		}
	}
}

func TestAdjust_StalenessPenalty(t *testing.T) {
	stale := Lead{Score: 50, CreatedAt: now.AddDate(0, 0, -45)}

	// Outbound contact on a stale lead: +3 < 5 triggers the extra -2.
	res := Adjust(stale, Interaction{Direction: "outbound"}, now)
	if res.Delta != 1 {
		t.Fatalf("expected delta 1 (3-2), got %d", res.Delta)
	}
	if res.Reason != "outbound contact; no significant progress" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}

	// A strong event on the same stale lead is not penalized.
	res = Adjust(stale, Interaction{Direction: "inbound"}, now)
	if res.Delta != 8 {
		t.Fatalf("expected delta 8, got %d", res.Delta)
	}
}

func TestAdjust_ScoreBounds(t *testing.T) {
	// Upper clamp.
	res := Adjust(freshLead(95), Interaction{Direction: "inbound", Channel: "in_person", Kind: "test_drive"}, now)
	if res.NewScore != 100 {
		t.Fatalf("expected clamp to 100, got %d", res.NewScore)
	}
	if res.NewTier != TierGreen {
		t.Fatalf("expected green tier, got %s", res.NewTier)
	}

	// Lower clamp.
	res = Adjust(freshLead(2), PreferenceChange{OldTimeframe: "immediate", NewTimeframe: "future"}, now)
	if res.NewScore != 0 {
		t.Fatalf("expected clamp to 0, got %d", res.NewScore)
	}
	if res.NewTier != TierRed {
		t.Fatalf("expected red tier, got %s", res.NewTier)
	}
}

func TestAdjust_UnknownEventFieldsContributeZero(t *testing.T) {
	res := Adjust(freshLead(50), Interaction{Kind: "smoke_signal", Channel: "fax", Direction: "sideways"}, now)
	if res.Delta != 0 {
		t.Fatalf("expected zero delta, got %d", res.Delta)
	}
	if res.NewScore != 50 {
		t.Fatalf("score must not move, got %d", res.NewScore)
	}
	if res.Reason != "no scoring impact" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
}

func TestAdjust_Idempotent(t *testing.T) {
	lead := freshLead(47)
	event := Interaction{Direction: "inbound", Channel: "phone", Kind: "quotation"}

	first := Adjust(lead, event, now)
	for i := 0; i < 5; i++ {
		if got := Adjust(lead, event, now); got != first {
			t.Fatalf("adjust is not deterministic: %+v vs %+v", got, first)
		}
	}
}
