package manager

import "time"

// Urgency - цветовая классификация задачи по сроку
type Urgency string

const (
	UrgencyNeutral     Urgency = "neutral"
	UrgencyOverdue     Urgency = "overdue"
	UrgencyDueSoon     Urgency = "due-soon"
	UrgencyComfortable Urgency = "comfortable"
)

const dueSoonHours = 24

// Classify вычисляется только при отрисовке и переключении статуса, таймера нет.
// Границы 0 и 24 часа включаются в due-soon.
func Classify(deadline *time.Time, isComplete bool, now time.Time) Urgency {
	if isComplete || deadline == nil || deadline.IsZero() {
		return UrgencyNeutral
	}

	hours := deadline.Sub(now).Hours()
	switch {
	case hours < 0:
		return UrgencyOverdue
	case hours <= dueSoonHours:
		return UrgencyDueSoon
	default:
		return UrgencyComfortable
	}
}
