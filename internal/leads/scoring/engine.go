// Package scoring computes lead qualification scores from discrete sales
// events. The engine is a pure function over a lead snapshot and one event:
// no I/O, no clock reads beyond the caller-supplied now, and identical
// inputs always produce the identical result. Callers fetch the lead,
// call Adjust, and persist the returned score and tier themselves.
package scoring

import (
	"strings"
	"time"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	minScore = 0
	maxScore = 100

	// Tier thresholds. Tier is always derived from score, never stored
	// independently.
	greenThreshold  = 80
	yellowThreshold = 60

	// CampaignFinancingType is the flagship campaign-linked financing plan.
	// Switching a lead's financing preference to it signals high intent.
	CampaignFinancingType = "campaign"

	// staleAfterDays is the lead age beyond which weak events are penalized.
	staleAfterDays = 30
)

// Tier is the discrete qualification bucket derived from the score.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

// Version returns the current scoring model version, stamped on every
// result and on freshly created leads.
func Version() string {
	return scoreVersion
}

// TierFor derives the tier for a score.
func TierFor(score int) Tier {
	switch {
	case score >= greenThreshold:
		return TierGreen
	case score >= yellowThreshold:
		return TierYellow
	default:
		return TierRed
	}
}

// Timeframe values for purchase intent.
const (
	TimeframeImmediate = "immediate"
	TimeframeSoon      = "soon"
	TimeframeFuture    = "future"
)

// Interaction channels and directions.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelPhone    = "phone"
	ChannelInPerson = "in_person"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Interaction kinds that carry their own weight.
const (
	KindMeeting   = "meeting"
	KindTestDrive = "test_drive"
	KindQuotation = "quotation"
)

// Lead is the snapshot of the lead record the engine scores against.
type Lead struct {
	Score           int
	ModelInterested string
	Timeframe       string // empty when unknown
	FinancingType   string // empty when unknown
	CreatedAt       time.Time
}

// Event is the tagged union of business events that move a score.
// It is constructed by the caller per action and never persisted here.
type Event interface {
	isScoringEvent()
}

// Interaction is a logged touch point with the lead.
type Interaction struct {
	Kind      string
	Channel   string
	Direction string
}

// FollowUp records the outcome of a scheduled follow-up.
type FollowUp struct {
	Completed bool
}

// PreferenceChange captures a change in timeframe or financing preference.
type PreferenceChange struct {
	OldTimeframe string
	NewTimeframe string
	OldFinancing string
	NewFinancing string
}

// Edit captures a manual edit of the lead record.
type Edit struct {
	OldModel     string
	NewModel     string
	OldTimeframe string
	NewTimeframe string
	OldFinancing string
	NewFinancing string
}

func (Interaction) isScoringEvent()      {}
func (FollowUp) isScoringEvent()         {}
func (PreferenceChange) isScoringEvent() {}
func (Edit) isScoringEvent()             {}

// Result holds the scoring output.
type Result struct {
	NewScore int
	Delta    int
	Reason   string
	NewTier  Tier
	Version  string
}

// adjustment accumulates deltas. Multiple clauses of one event stack
// numerically; the last non-empty reason wins.
type adjustment struct {
	delta  int
	reason string
}

func (a *adjustment) add(delta int, reason string) {
	a.delta += delta
	if reason != "" {
		a.reason = reason
	}
}

// Adjust applies one event to a lead snapshot and returns the new score,
// the signed delta, a human-readable reason and the derived tier.
// Unknown or unspecified event fields contribute zero delta; the function
// never fails.
func Adjust(lead Lead, event Event, now time.Time) Result {
	var adj adjustment

	switch e := event.(type) {
	case Interaction:
		scoreInteraction(&adj, e)
	case FollowUp:
		scoreFollowUp(&adj, e)
	case PreferenceChange:
		scorePreferenceChange(&adj, e)
	case Edit:
		scoreEdit(&adj, e)
	}

	// Stale leads: weak events stop counting for much after a month
	// without significant progress.
	if daysSince(lead.CreatedAt, now) > staleAfterDays && adj.delta < 5 {
		adj.delta -= 2
		if adj.reason == "" {
			adj.reason = "no significant progress"
		} else {
			adj.reason += "; no significant progress"
		}
	}

	if adj.reason == "" {
		adj.reason = "no scoring impact"
	}

	newScore := clampScore(lead.Score + adj.delta)
	return Result{
		NewScore: newScore,
		Delta:    adj.delta,
		Reason:   adj.reason,
		NewTier:  TierFor(newScore),
		Version:  scoreVersion,
	}
}

func scoreInteraction(adj *adjustment, e Interaction) {
	switch normalize(e.Direction) {
	case DirectionInbound:
		adj.add(8, "lead-initiated, high intent")
	case DirectionOutbound:
		adj.add(3, "outbound contact")
	}

	switch normalize(e.Channel) {
	case ChannelWhatsApp:
		adj.add(5, "")
	case ChannelPhone:
		adj.add(7, "")
	case ChannelInPerson:
		adj.add(12, "")
	}

	// Kind deltas stack on top of direction/channel; their reason replaces
	// the direction reason.
	switch normalize(e.Kind) {
	case KindMeeting:
		adj.add(15, "meeting held")
	case KindTestDrive:
		adj.add(20, "test drive completed")
	case KindQuotation:
		adj.add(10, "quotation requested")
	}
}

func scoreFollowUp(adj *adjustment, e FollowUp) {
	if e.Completed {
		adj.add(6, "follow-up completed")
	} else {
		adj.add(-3, "follow-up missed")
	}
}

func scorePreferenceChange(adj *adjustment, e PreferenceChange) {
	oldTF, newTF := normalize(e.OldTimeframe), normalize(e.NewTimeframe)
	switch {
	case oldTF == TimeframeFuture && newTF == TimeframeImmediate:
		adj.add(15, "timeframe moved up to immediate")
	case oldTF == TimeframeImmediate && newTF == TimeframeFuture:
		adj.add(-10, "timeframe pushed out to future")
	}

	oldFin, newFin := normalize(e.OldFinancing), normalize(e.NewFinancing)
	if oldFin != newFin {
		switch {
		case newFin == CampaignFinancingType:
			adj.add(12, "switched to campaign financing")
		case oldFin == CampaignFinancingType:
			adj.add(-8, "switched away from campaign financing")
		}
	}
}

func scoreEdit(adj *adjustment, e Edit) {
	newModel := strings.TrimSpace(e.NewModel)
	if newModel != "" && !strings.EqualFold(newModel, strings.TrimSpace(e.OldModel)) {
		adj.add(3, "model interest updated")
	}

	oldTF, newTF := normalize(e.OldTimeframe), normalize(e.NewTimeframe)
	if oldTF != newTF {
		switch newTF {
		case TimeframeImmediate:
			adj.add(15, "timeframe moved up to immediate")
		case TimeframeFuture:
			adj.add(-10, "timeframe pushed out to future")
		}
	}

	oldFin, newFin := normalize(e.OldFinancing), normalize(e.NewFinancing)
	if oldFin != newFin && newFin == CampaignFinancingType {
		adj.add(12, "switched to campaign financing")
	}
}

func daysSince(createdAt, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}

func clampScore(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// normalize folds enum-ish strings to a canonical lower-snake token so that
// "In-Person", "in person" and "in_person" compare equal.
func normalize(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	lowered = strings.ReplaceAll(lowered, "-", "_")
	return strings.ReplaceAll(lowered, " ", "_")
}
