package university

// # Error Codes Reference
//
// User-facing messages with codes support staff can look up. Known error
// values are matched with errors.Is first; anything else (driver and
// transport failures) falls through to case-insensitive substring patterns.
//
// # Load Errors
//
//	SRC001 - Source not found: a dataset file could not be opened
//	         Action: Check DATASET_DIR and the file names in the dataset profile
//	REC001 - Malformed record: a line has the wrong number of fields
//	         Action: Fix the line named in the error, or the profile's separator/columns
//	CLS001 - Invalid classification: course type is not R or E
//	         Action: Use R for required and E for elective courses
//	REF001 - Unresolved reference: a record names an unknown student, instructor or major
//	         Action: Add the missing entity or correct the CWID
//	REF002 - Unknown major: the requested major is not in the catalog
//	         Action: Check the major name against the majors file
//	REF003 - Duplicate key: a CWID appears twice in a roster
//	         Action: Remove the earlier record; the later one is used
//	GPA001 - Unknown grade: a grade is not on the grade-point table
//	         Action: Use A, A-, B+, B, B-, C+, C, C-, D+, D, D- or F
//	GPA002 - No grades recorded: GPA asked for a student without grades
//
// # Database Errors
//
//	DB004 - Connection refused     Patterns: "connection refused"
//	DB005 - Connection reset       Patterns: "connection reset"
//	DB006 - Timeout                Patterns: "timeout"
//	DB007 - Deadlock               Patterns: "deadlock"
//
// # Request Errors
//
//	REQ001 - Request cancelled     context.Canceled, "context canceled"
//	REQ002 - Request timed out     context.DeadlineExceeded, "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/records"
	"github.com/JonMunkholm/gradebook/internal/roster"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorTarget struct {
	target error
	msg    UserMessage
}

// errorTargets are checked in order with errors.Is.
var errorTargets = []errorTarget{
	{
		target: records.ErrSourceNotFound,
		msg: UserMessage{
			Message: "A dataset file could not be opened",
			Action:  "Check DATASET_DIR and the file names in the dataset profile",
			Code:    "SRC001",
		},
	},
	{
		target: records.ErrMalformedRecord,
		msg: UserMessage{
			Message: "A line has the wrong number of fields",
			Action:  "Fix the line named in the error, or the profile's separator and columns",
			Code:    "REC001",
		},
	},
	{
		target: catalog.ErrInvalidClassification,
		msg: UserMessage{
			Message: "Course type must be R or E",
			Action:  "Use R for required and E for elective courses",
			Code:    "CLS001",
		},
	},
	{
		target: catalog.ErrUnknownMajor,
		msg: UserMessage{
			Message: "Major not found",
			Action:  "Check the major name against the majors file",
			Code:    "REF002",
		},
	},
	{
		target: ErrUnresolvedReference,
		msg: UserMessage{
			Message: "A record refers to a student, instructor or major that does not exist",
			Action:  "Add the missing entity or correct the CWID",
			Code:    "REF001",
		},
	},
	{
		target: ErrDuplicateKey,
		msg: UserMessage{
			Message: "A CWID appears more than once",
			Action:  "Remove the earlier record; the later one is used",
			Code:    "REF003",
		},
	},
	{
		target: roster.ErrUnknownGrade,
		msg: UserMessage{
			Message: "A grade is not on the grade-point table",
			Action:  "Use A, A-, B+, B, B-, C+, C, C-, D+, D, D- or F",
			Code:    "GPA001",
		},
	},
	{
		target: roster.ErrNoGradesRecorded,
		msg: UserMessage{
			Message: "No grades recorded for this student",
			Action:  "Load grades before asking for a GPA",
			Code:    "GPA002",
		},
	},
	{
		target: context.Canceled,
		msg:    requestCancelled,
	},
	{
		target: context.DeadlineExceeded,
		msg:    requestTimeout,
	},
}

var (
	requestCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	requestTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Please try again later",
		Code:    "REQ002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that only survive as text. First match wins, so
// specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{pattern: "context canceled", msg: requestCancelled},
	{pattern: "context deadline exceeded", msg: requestTimeout},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the reporting database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	_, err := university.Build(ctx, ds)
//	msg := university.MapError(err)
//	// msg.Code == "SRC001" when majors.txt is missing
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
