package errno

// code=0    request ok
// code=4xx  client errors
// code=5xx  server errors
// code=2xxxx business errors

type Errno struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// highlight task errors
	ErrTaskNotFound       = &Errno{Code: 20001, Message: "Highlight task not found"}
	ErrInvalidTaskStatus  = &Errno{Code: 20002, Message: "Invalid task status"}
	ErrTaskUUIDRequired   = &Errno{Code: 20003, Message: "Task UUID is required"}
	ErrUserUUIDRequired   = &Errno{Code: 20012, Message: "User UUID is required"}
	ErrSourceURLRequired  = &Errno{Code: 20004, Message: "Source URL is required"}
	ErrInvalidClipCount   = &Errno{Code: 20005, Message: "Clip count must be between 1 and 10"}
	ErrInvalidClipBounds  = &Errno{Code: 20006, Message: "Clip duration bounds are invalid"}
	ErrInvalidAspectMode  = &Errno{Code: 20007, Message: "Unsupported aspect mode"}
	ErrInvalidQualityTier = &Errno{Code: 20008, Message: "Unsupported quality tier"}
	ErrQueueFull          = &Errno{Code: 20009, Message: "Task queue is full"}
	ErrTaskNotReady       = &Errno{Code: 20010, Message: "Task result is not ready"}
	ErrTaskAlreadyDone    = &Errno{Code: 20011, Message: "Task already reached a terminal status"}

	// publish errors
	ErrPublishJobNotFound   = &Errno{Code: 20020, Message: "Publish job not found"}
	ErrClipNotFound         = &Errno{Code: 20021, Message: "Clip not found"}
	ErrClipNotRendered      = &Errno{Code: 20022, Message: "Clip has not been rendered"}
	ErrUnknownPlatform      = &Errno{Code: 20023, Message: "Unknown publish platform"}
	ErrPlatformConstraint   = &Errno{Code: 20024, Message: "Clip violates platform constraints"}
	ErrJobUUIDRequired      = &Errno{Code: 20025, Message: "Job UUID is required"}
	ErrClipUUIDRequired     = &Errno{Code: 20026, Message: "Clip UUID is required"}
	ErrPlatformRequired     = &Errno{Code: 20027, Message: "Platform is required"}
	ErrInvalidScheduledTime = &Errno{Code: 20028, Message: "Scheduled time is invalid"}
)
