package dispatch

import (
	"strings"
	"time"

	"sav3_backend/internal/models"
)

type Verdict string

const (
	VerdictAllow    Verdict = "allow"
	VerdictSuppress Verdict = "suppress"
	VerdictDelay    Verdict = "delay"
	VerdictGroup    Verdict = "group"
)

// Usage is the user's recent send history, gathered by the caller so
// Resolve stays pure.
type Usage struct {
	SentLastHour int64
	SentLastDay  int64
	SentLastWeek int64

	TypeSentLastHour int64
	TypeSentLastDay  int64
	TypeSentLastWeek int64

	// Sends inside the burst protection window.
	SentInBurstWindow int64

	// Last send of the same type, for cooldown checks.
	TypeLastSentAt *time.Time
}

// Plan is the resolver's decision for one notification.
type Plan struct {
	Verdict  Verdict
	Channels []models.DeliveryChannel
	Until    time.Time // set for delay and group
	Reason   string
}

func allow(channels []models.DeliveryChannel) Plan {
	return Plan{Verdict: VerdictAllow, Channels: channels}
}

func suppress(reason string) Plan {
	return Plan{Verdict: VerdictSuppress, Reason: reason}
}

func delay(until time.Time, reason string) Plan {
	return Plan{Verdict: VerdictDelay, Until: until, Reason: reason}
}

// Resolve decides how a pending notification may be delivered given the
// user's settings and recent usage. Checks run in a fixed order: global
// switch, user rules, per-channel gating, quiet hours, frequency limits,
// burst protection. Urgent notifications skip frequency and burst
// checks, and skip quiet hours when the user opted into the emergency
// override.
func Resolve(n *models.Notification, settings *models.NotificationSettings, usage Usage, now time.Time) Plan {
	if !settings.Enabled {
		return suppress("notifications disabled")
	}

	plan, matched, reroute := applyRules(n, settings.Rules.Data())
	if matched {
		return plan
	}

	// A reroute rule names the channel set explicitly, skipping the
	// per-channel gating the user just overrode.
	channels := reroute
	if len(channels) == 0 {
		channels = gateChannels(n, settings)
	}
	if len(channels) == 0 {
		return suppress("no enabled channels")
	}

	urgent := n.Priority == models.PriorityUrgent

	quiet := settings.QuietHours.Data()
	if until, inWindow := quietHoursUntil(quiet, now); inWindow {
		if !urgent || !quiet.EmergencyOverride {
			return delay(until, "quiet hours")
		}
	}

	if urgent {
		return allow(channels)
	}

	freq := settings.Frequency.Data()
	if plan, limited := applyFrequency(n, freq, usage, now); limited {
		return plan
	}

	if plan, burst := applyBurst(freq.Burst, usage, now); burst {
		return plan
	}

	return allow(channels)
}

// ---------------- Rules ----------------

func applyRules(n *models.Notification, rules []models.NotificationRule) (Plan, bool, []models.DeliveryChannel) {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if !matchCondition(n, rule.Condition) {
			continue
		}
		switch rule.Action {
		case models.RuleActionSuppress:
			return suppress("rule " + rule.ID), true, nil
		case models.RuleActionReroute:
			return Plan{}, false, rule.Channels
		}
		// First matching rule wins; an allow rule short-circuits the
		// remaining rules but not the checks below.
		return Plan{}, false, nil
	}
	return Plan{}, false, nil
}

func matchCondition(n *models.Notification, cond models.RuleCondition) bool {
	if len(cond.All) > 0 {
		for _, sub := range cond.All {
			if !matchCondition(n, sub) {
				return false
			}
		}
		return true
	}
	if len(cond.Any) > 0 {
		for _, sub := range cond.Any {
			if matchCondition(n, sub) {
				return true
			}
		}
		return false
	}

	var actual string
	switch cond.Field {
	case "type":
		actual = n.Type
	case "category":
		actual = string(n.Category)
	case "priority":
		actual = string(n.Priority)
	case "title":
		actual = n.Title
	default:
		return false
	}

	switch cond.Op {
	case "eq":
		return actual == cond.Value
	case "ne":
		return actual != cond.Value
	case "contains":
		return strings.Contains(strings.ToLower(actual), strings.ToLower(cond.Value))
	}
	return false
}

// ---------------- Channel gating ----------------

// gateChannels filters the notification's target channels against the
// user's per-channel config. The in-app channel is never gated: the
// stored row is the in-app notification and the socket push costs
// nothing.
func gateChannels(n *models.Notification, settings *models.NotificationSettings) []models.DeliveryChannel {
	var out []models.DeliveryChannel
	for _, ch := range n.TargetChannels() {
		if ch == models.ChannelInApp {
			out = append(out, ch)
			continue
		}

		cfg := settings.ChannelConfigFor(ch)
		if !cfg.Enabled {
			continue
		}
		if cfg.Types != nil {
			if enabled, ok := cfg.Types[n.Type]; ok && !enabled {
				continue
			}
		}
		if cfg.Categories != nil {
			if enabled, ok := cfg.Categories[string(n.Category)]; ok && !enabled {
				continue
			}
		}
		if cfg.MinPriority != "" && n.Priority.Rank() < cfg.MinPriority.Rank() {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// ---------------- Quiet hours ----------------

// quietHoursUntil reports whether now falls inside the user's quiet
// window and, if so, when the window ends. Windows may wrap midnight;
// Days filters by the weekday the window started on.
func quietHoursUntil(q models.QuietHours, now time.Time) (time.Time, bool) {
	if !q.Enabled {
		return time.Time{}, false
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	start, ok := parseClock(q.Start)
	if !ok {
		return time.Time{}, false
	}
	end, ok := parseClock(q.End)
	if !ok {
		return time.Time{}, false
	}

	minutes := local.Hour()*60 + local.Minute()
	var inWindow bool
	var windowDay time.Weekday

	if start <= end {
		inWindow = minutes >= start && minutes < end
		windowDay = local.Weekday()
	} else {
		// Wraps midnight, e.g. 22:00 - 08:00.
		inWindow = minutes >= start || minutes < end
		windowDay = local.Weekday()
		if minutes < end {
			windowDay = local.AddDate(0, 0, -1).Weekday()
		}
	}

	if !inWindow || !dayEnabled(q.Days, windowDay) {
		return time.Time{}, false
	}

	endToday := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !endToday.After(local) {
		endToday = endToday.AddDate(0, 0, 1)
	}
	return endToday, true
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func dayEnabled(days []int, day time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// ---------------- Frequency limits ----------------

// applyFrequency checks cooldown and sliding-window caps. Hour caps
// delay until the next dispatch cycle can re-check; day and week caps
// suppress outright since waiting them out would make the notification
// stale anyway.
func applyFrequency(n *models.Notification, freq models.FrequencySettings, usage Usage, now time.Time) (Plan, bool) {
	perType, hasPerType := freq.PerType[n.Type]

	if hasPerType && perType.CooldownMinutes > 0 && usage.TypeLastSentAt != nil {
		readyAt := usage.TypeLastSentAt.Add(time.Duration(perType.CooldownMinutes) * time.Minute)
		if readyAt.After(now) {
			return delay(readyAt, "type cooldown"), true
		}
	}

	if exceeded(freq.Global.MaxPerHour, usage.SentLastHour) {
		return delay(now.Add(15*time.Minute), "hourly limit"), true
	}
	if hasPerType && exceeded(perType.MaxPerHour, usage.TypeSentLastHour) {
		return delay(now.Add(15*time.Minute), "hourly type limit"), true
	}

	if exceeded(freq.Global.MaxPerDay, usage.SentLastDay) ||
		(hasPerType && exceeded(perType.MaxPerDay, usage.TypeSentLastDay)) {
		return suppress("daily limit"), true
	}
	if exceeded(freq.Global.MaxPerWeek, usage.SentLastWeek) ||
		(hasPerType && exceeded(perType.MaxPerWeek, usage.TypeSentLastWeek)) {
		return suppress("weekly limit"), true
	}

	return Plan{}, false
}

func exceeded(limit int, sent int64) bool {
	return limit > 0 && sent >= int64(limit)
}

// ---------------- Burst protection ----------------

func applyBurst(burst models.BurstProtection, usage Usage, now time.Time) (Plan, bool) {
	if !burst.Enabled || burst.Threshold <= 0 {
		return Plan{}, false
	}
	if usage.SentInBurstWindow < int64(burst.Threshold) {
		return Plan{}, false
	}

	window := time.Duration(burst.WindowMinutes) * time.Minute
	switch burst.Action {
	case models.BurstActionSuppress:
		return suppress("burst protection"), true
	case models.BurstActionDelay:
		return delay(now.Add(window), "burst protection"), true
	default:
		// Group: hold until the window passes and mark the row so the
		// clients can fold it into a digest.
		return Plan{Verdict: VerdictGroup, Until: now.Add(window), Reason: "burst protection"}, true
	}
}
