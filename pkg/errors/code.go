package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 17000-17099: Command execution errors
// 17100-17199: Remote filesystem errors
// 17200-17299: Disk usage & quota errors
// 17300-17399: Artifact staging errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Command Execution Errors (17000-17099) ==========

	ToolUnavailable      ErrorCode = 17000
	SpawnFailed          ErrorCode = 17001
	ReapFailed           ErrorCode = 17002
	StreamReadFailed     ErrorCode = 17003
	UnexpectedExitStatus ErrorCode = 17004

	// ========== Remote Filesystem Errors (17100-17199) ==========

	UnexpectedOutputFormat  ErrorCode = 17100
	LocalPreconditionFailed ErrorCode = 17101
	UnsupportedScheme       ErrorCode = 17102
	RemoteOperationFailed   ErrorCode = 17103

	// ========== Disk Usage & Quota Errors (17200-17299) ==========

	MeasurementFailed ErrorCode = 17200
	MonitorNotFound   ErrorCode = 17201

	// ========== Artifact Staging Errors (17300-17399) ==========

	ArtifactFetchFailed   ErrorCode = 17300
	ArtifactExtractFailed ErrorCode = 17301
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	CacheError:          "Cache operation failed",
	ValidationFailed:    "Validation failed",

	// Command execution
	ToolUnavailable:      "External tool is not executable",
	SpawnFailed:          "Failed to execute the subprocess",
	ReapFailed:           "Failed to reap the subprocess",
	StreamReadFailed:     "Failed to read subprocess output",
	UnexpectedExitStatus: "Unexpected result from the subprocess",

	// Remote filesystem
	UnexpectedOutputFormat:  "Unexpected output format",
	LocalPreconditionFailed: "Local precondition failed",
	UnsupportedScheme:       "Unsupported filesystem scheme",
	RemoteOperationFailed:   "Remote filesystem operation failed",

	// Disk usage & quota
	MeasurementFailed: "Disk usage measurement failed",
	MonitorNotFound:   "Disk usage monitor not found",

	// Artifact staging
	ArtifactFetchFailed:   "Failed to fetch artifact",
	ArtifactExtractFailed: "Failed to extract artifact",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == MonitorNotFound:
		return 404
	case c == ServiceUnavailable, c == ToolUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == UnsupportedScheme, c == LocalPreconditionFailed:
		return 400
	default:
		return 500
	}
}
