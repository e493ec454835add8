package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13099: Submission validation errors
// 13100-13199: Judge execution errors
// 13200-13299: Test case errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	CacheMiss  ErrorCode = 10201

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300
	InvalidFormat    ErrorCode = 10301

	// Storage & messaging errors (10400-10499)
	StorageError      ErrorCode = 10400
	MessageQueueError ErrorCode = 10401

	// ========== Submission Validation Errors (13000-13099) ==========

	ExecutionNotFound    ErrorCode = 13000
	EmptySource          ErrorCode = 13001
	CodeTooLarge         ErrorCode = 13002
	LanguageNotSupported ErrorCode = 13003
	DangerousCode        ErrorCode = 13004
	TemplateNotFound     ErrorCode = 13005

	// ========== Judge Execution Errors (13100-13199) ==========

	JudgeQueueFull        ErrorCode = 13100
	JudgeSystemError      ErrorCode = 13101
	CompilationError      ErrorCode = 13102
	RuntimeError          ErrorCode = 13103
	TimeLimitExceeded     ErrorCode = 13104
	MemoryLimitExceeded   ErrorCode = 13105
	OutputLimitExceeded   ErrorCode = 13106
	InsufficientResources ErrorCode = 13107
	BackendUnavailable    ErrorCode = 13108
	RemoteJudgeError      ErrorCode = 13109

	// ========== Test Case Errors (13200-13299) ==========

	TestCaseInvalid ErrorCode = 13200
	TestCasesEmpty  ErrorCode = 13201
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Cache
	CacheError: "Cache operation failed",
	CacheMiss:  "Cache miss",

	// Validation
	ValidationFailed: "Validation failed",
	InvalidFormat:    "Invalid format",

	// Storage & messaging
	StorageError:      "Object storage operation failed",
	MessageQueueError: "Message queue operation failed",

	// Submission
	ExecutionNotFound:    "Execution not found",
	EmptySource:          "Source code is empty",
	CodeTooLarge:         "Code is too large",
	LanguageNotSupported: "Programming language not supported",
	DangerousCode:        "Source code contains forbidden constructs",
	TemplateNotFound:     "unsupported language or problem",

	// Judge
	JudgeQueueFull:        "Judge queue is full, please try again later",
	JudgeSystemError:      "Judge system error",
	CompilationError:      "Compilation error",
	RuntimeError:          "Runtime error",
	TimeLimitExceeded:     "Time limit exceeded",
	MemoryLimitExceeded:   "Memory limit exceeded",
	OutputLimitExceeded:   "Output limit exceeded",
	InsufficientResources: "Insufficient system resources, please try again later",
	BackendUnavailable:    "Execution backend is unavailable",
	RemoteJudgeError:      "Remote judge request failed",

	// Test cases
	TestCaseInvalid: "Invalid test case",
	TestCasesEmpty:  "At least one test case is required",
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
	case c == NotFound, c == ExecutionNotFound:
		return 404
	case c == TooManyRequests, c == JudgeQueueFull, c == InsufficientResources:
		return 429
	case c == ServiceUnavailable, c == BackendUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 13000 && c < 13100, c >= 13200 && c < 13300: // Submission and test case errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
