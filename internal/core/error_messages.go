package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload or download exceeds the size limit
//	          Patterns: "file too large"
//	FILE002 - Unreadable file: not a workbook or delimited text we can parse
//	          Patterns: "malformed source", "invalid csv"
//	FILE003 - Encoding error: text is not UTF-8, UTF-16 or Windows-1252
//	          Patterns: "encoding error"
//	FILE004 - No file: the request carried no file
//	          Patterns: "no file provided"
//	FILE005 - No entries: no row had both a word and a translation
//	          Patterns: "no valid entries"
//	FILE006 - Too many cells: the sheet exceeds the cell limit
//	          Patterns: "exceeds cell limit"
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Fetch failed: the URL could not be downloaded
//	         Patterns: "fetch failed"
//	NET002 - Unsupported link: not an http(s) URL or allowed path
//	         Patterns: "unsupported locator"
//
// # Import Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many imports in progress
//	         Patterns: "too many concurrent imports"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request body
//	         Patterns: "invalid request"
//	REQ002 - Unknown export format
//	         Patterns: "unknown export format"
//	REQ003 - Quiz report is empty
//	         Patterns: "empty report"
//
// # Speech Errors (SPK001-SPK099)
//
//	SPK001 - No voice for the requested language
//	         Patterns: "no voice available"
//	SPK002 - Speech provider unavailable
//	         Patterns: "speech unavailable"
//
// # History Errors (DB001-DB099)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		// Must precede "file too large": ErrSourceTooLarge carries both.
		pattern: "exceeds cell limit",
		msg: UserMessage{
			Message: "The spreadsheet has too many cells",
			Action:  "Remove unused columns or split the sheet into smaller files",
			Code:    "FILE006",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the word list into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 (CSV UTF-8 in Excel)",
			Code:    "FILE003",
		},
	},
	{
		pattern: "malformed source",
		msg: UserMessage{
			Message: "The file could not be read as a spreadsheet",
			Action:  "Upload an .xlsx workbook or a CSV/TSV file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file is not valid delimited text",
			Action:  "Check for unbalanced quotes and consistent delimiters",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet or CSV file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no valid entries",
		msg: UserMessage{
			Message: "No word pairs were found in the file",
			Action:  "Put the words in the first column and translations in the second",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Network Errors
	// =========================================================================
	{
		pattern: "unsupported locator",
		msg: UserMessage{
			Message: "This link cannot be imported",
			Action:  "Use an http(s) link to a spreadsheet, CSV file or Google Sheet",
			Code:    "NET002",
		},
	},

	// =========================================================================
	// Import Errors
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "fetch failed",
		msg: UserMessage{
			Message: "The link could not be downloaded",
			Action:  "Check that the link is public and try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request body and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Use format=json or format=text",
			Code:    "REQ002",
		},
	},
	{
		pattern: "empty report",
		msg: UserMessage{
			Message: "The quiz report has no answers",
			Action:  "Answer at least one word before exporting",
			Code:    "REQ003",
		},
	},

	// =========================================================================
	// Speech Errors
	// =========================================================================
	{
		pattern: "no voice available",
		msg: UserMessage{
			Message: "No voice is available for this language",
			Action:  "Install a voice for the language or pick another one",
			Code:    "SPK001",
		},
	},
	{
		pattern: "speech unavailable",
		msg: UserMessage{
			Message: "Text to speech is not available",
			Action:  "Please try again later",
			Code:    "SPK002",
		},
	},

	// =========================================================================
	// History database
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the history database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "History database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Rate Limiting
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

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
//	msg := MapError(fmt.Errorf("import: %w", ErrNoEntries))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
