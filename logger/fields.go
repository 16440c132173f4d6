package logger

// Standard field names used across the subsystem.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldSubjectID = "subject_id"
	FieldEndpoint  = "endpoint"
	FieldClientIP  = "client_ip"
	FieldReason    = "reason"
)
