package message

// Composed is the outcome of one composition rule: the shared-channel
// body plus the personal-notification fan-out. NotifyUserIDs is empty
// unless the rule decided specific users must be alerted.
type Composed struct {
	Body          string
	NotifyUserIDs []int
	NotifyText    string
}
