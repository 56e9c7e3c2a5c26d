package alerting

// DefaultLeadDays are the checkpoints, in days before the target date, used
// when none are configured.
var DefaultLeadDays = []int{7, 14, 30}
