package web

// messages.go defines user-friendly error messages with codes for support
// reference. When reviewers encounter errors, they can quote the error code
// to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
//	AUTH001-AUTH099 — sign-in and session errors
//	DOC001-DOC099   — document lookup and persistence errors
//	PDF001-PDF099   — statement preview and proxy errors
//	VAL001-VAL099   — request and company-validation errors
//	DB001-DB099     — database connectivity errors
//	RATE001         — request throttling
//	ERR000          — fallback when no pattern matches
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come before general ones.

import (
	"errors"
	"strings"
)

// Sentinel errors fed through the same mapping path as wrapped errors.
var (
	errRateLimited = errors.New("rate limit exceeded")
	errInvalidBody = errors.New("invalid request body")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Auth errors (AUTH001-AUTH003)
	// =========================================================================
	{
		pattern: "not authorized",
		msg: UserMessage{
			Message: "This email address is not authorized",
			Action:  "Contact your administrator to request access",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid or expired code",
		msg: UserMessage{
			Message: "The code is wrong or has expired",
			Action:  "Request a new code and try again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "no active session",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Please sign in again",
			Code:    "AUTH003",
		},
	},

	// =========================================================================
	// Document errors (DOC001-DOC002)
	// =========================================================================
	{
		pattern: "document not found",
		msg: UserMessage{
			Message: "Document not found",
			Action:  "It may have been removed. Return to the dashboard",
			Code:    "DOC001",
		},
	},
	{
		pattern: "table index out of range",
		msg: UserMessage{
			Message: "That table does not exist on this document",
			Action:  "Reload the review page and try again",
			Code:    "DOC002",
		},
	},

	// =========================================================================
	// Preview / PDF proxy errors (PDF001-PDF004)
	// =========================================================================
	{
		pattern: "object not found",
		msg: UserMessage{
			Message: "The statement PDF could not be found in storage",
			Action:  "Re-upload the statement or contact support",
			Code:    "PDF001",
		},
	},
	{
		pattern: "not a valid pdf",
		msg: UserMessage{
			Message: "The stored file is not a readable PDF",
			Action:  "Re-upload the statement",
			Code:    "PDF002",
		},
	},
	{
		pattern: "empty pdf",
		msg: UserMessage{
			Message: "Received empty PDF file",
			Action:  "Retry loading the preview",
			Code:    "PDF003",
		},
	},
	{
		pattern: "byte limit",
		msg: UserMessage{
			Message: "The statement PDF is too large to preview",
			Action:  "Download the file instead",
			Code:    "PDF004",
		},
	},

	// =========================================================================
	// Request / validation errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Reload the page and try again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "company name is required",
		msg: UserMessage{
			Message: "Company name is required",
			Action:  "Enter a company name before validating",
			Code:    "VAL002",
		},
	},
	{
		pattern: "row length mismatch",
		msg: UserMessage{
			Message: "A table row does not match its header",
			Action:  "Reload the review page; the table state is stale",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Database connectivity (DB001-DB003)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Check your connection and try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Rate limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// mapError converts a technical error to a user-friendly message. It searches
// through known error patterns (case-insensitive) and returns the first
// match. If no pattern matches, the ERR000 fallback is returned.
func mapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
