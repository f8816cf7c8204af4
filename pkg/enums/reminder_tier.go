package enums

// ReminderTier identifies which payment reminder a booking qualifies for.
type ReminderTier string

const (
	ReminderTierNone     ReminderTier = "none"
	ReminderTierUpcoming ReminderTier = "upcoming"
	ReminderTierDue      ReminderTier = "due"
	ReminderTierOverdue  ReminderTier = "overdue"
)

// String implements fmt.Stringer.
func (r ReminderTier) String() string {
	return string(r)
}

// IsActionable reports whether the tier results in an email being sent.
func (r ReminderTier) IsActionable() bool {
	switch r {
	case ReminderTierUpcoming, ReminderTierDue, ReminderTierOverdue:
		return true
	default:
		return false
	}
}
