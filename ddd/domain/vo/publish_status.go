package vo

// PublishStatus lifecycle state of a publish job
type PublishStatus string

const (
	// PublishStatusQueued waiting for its scheduled time
	PublishStatusQueued PublishStatus = "queued"
	// PublishStatusInFlight dispatch in progress
	PublishStatusInFlight PublishStatus = "in_flight"
	// PublishStatusSucceeded accepted by the platform
	PublishStatusSucceeded PublishStatus = "succeeded"
	// PublishStatusFailedRetryable failed, eligible for another attempt
	PublishStatusFailedRetryable PublishStatus = "failed_retryable"
	// PublishStatusFailedPermanent failed, no further attempts
	PublishStatusFailedPermanent PublishStatus = "failed_permanent"
)

// IsValid checks whether the status is a known one
func (s PublishStatus) IsValid() bool {
	switch s {
	case PublishStatusQueued, PublishStatusInFlight, PublishStatusSucceeded,
		PublishStatusFailedRetryable, PublishStatusFailedPermanent:
		return true
	default:
		return false
	}
}

// String returns the status string
func (s PublishStatus) String() string {
	return string(s)
}

// IsTerminal checks whether the job can never run again
func (s PublishStatus) IsTerminal() bool {
	return s == PublishStatusSucceeded || s == PublishStatusFailedPermanent
}

// CanTransitionTo checks whether the job may move to the target status
func (s PublishStatus) CanTransitionTo(target PublishStatus) bool {
	switch s {
	case PublishStatusQueued:
		return target == PublishStatusInFlight
	case PublishStatusInFlight:
		return target == PublishStatusSucceeded ||
			target == PublishStatusFailedRetryable ||
			target == PublishStatusFailedPermanent
	case PublishStatusFailedRetryable:
		return target == PublishStatusQueued || target == PublishStatusFailedPermanent
	case PublishStatusSucceeded, PublishStatusFailedPermanent:
		return false
	default:
		return false
	}
}
