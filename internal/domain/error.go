package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond   ErrorCode = "FAILED_PRECONDITION"
	CodeAlreadyExists   ErrorCode = "ALREADY_EXISTS"
	CodeInternal        ErrorCode = "INTERNAL"
)

var (
	ErrUnknownServer       = errors.New("unknown server")
	ErrServerNotSummarized = errors.New("server tool summaries not loaded")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrUnknownAction       = errors.New("unknown action")
	ErrMalformedAction     = errors.New("malformed action")
	ErrCatalogFetch        = errors.New("catalog fetch failed")
	ErrToolNameConflict    = errors.New("tool name conflict")
)

// Meta keys carried by loader errors.
const (
	MetaServers = "servers"
	MetaServer  = "server"
	MetaTools   = "tools"
	MetaAction  = "action"
)

type Error struct {
	Code      ErrorCode
	Op        string
	Message   string
	Cause     error
	Retryable bool
	Meta      map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:      existing.Code,
			Op:        op,
			Message:   existing.Message,
			Cause:     existing.Cause,
			Retryable: existing.Retryable,
			Meta:      existing.Meta,
		}
	}
	return E(code, op, "", err)
}

// UnknownServerError reports server ids absent from the catalog.
func UnknownServerError(op string, ids []string) *Error {
	e := E(CodeNotFound, op, fmt.Sprintf("unknown server(s): %s", strings.Join(ids, ", ")), ErrUnknownServer)
	e.Meta = map[string]string{MetaServers: strings.Join(ids, ",")}
	return e
}

// ServerNotSummarizedError reports an activation attempted before summaries were loaded.
func ServerNotSummarizedError(op, serverID string) *Error {
	e := E(CodeFailedPrecond, op,
		fmt.Sprintf("tool summaries for %s must be loaded first (use load_tool_summaries)", serverID),
		ErrServerNotSummarized)
	e.Meta = map[string]string{MetaServer: serverID}
	return e
}

// UnknownToolError reports tool ids absent from a server's summaries.
func UnknownToolError(op, serverID string, ids []string) *Error {
	e := E(CodeNotFound, op,
		fmt.Sprintf("unknown tool(s) on server %s: %s", serverID, strings.Join(ids, ", ")),
		ErrUnknownTool)
	e.Meta = map[string]string{MetaServer: serverID, MetaTools: strings.Join(ids, ",")}
	return e
}

// UnknownActionError reports an action value outside the loader's vocabulary.
func UnknownActionError(action string) *Error {
	e := E(CodeInvalidArgument, "loader",
		fmt.Sprintf("invalid action %q, use 'load_tool_summaries' or 'load_tools'", action),
		ErrUnknownAction)
	e.Meta = map[string]string{MetaAction: action}
	return e
}

// MalformedActionError reports loader arguments that do not match the action schema.
func MalformedActionError(msg string) *Error {
	return E(CodeInvalidArgument, "loader", msg, ErrMalformedAction)
}

// CatalogFetchError wraps a transient catalog source failure.
func CatalogFetchError(op, serverID string, cause error) *Error {
	msg := fmt.Sprintf("fetch from server %s failed", serverID)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{
		Code:      CodeUnavailable,
		Op:        op,
		Message:   msg,
		Cause:     errors.Join(ErrCatalogFetch, cause),
		Retryable: true,
		Meta:      map[string]string{MetaServer: serverID},
	}
}

// ToolNameConflictError reports an exposed name already taken by another tool.
func ToolNameConflictError(op, name, owner string) *Error {
	e := E(CodeAlreadyExists, op,
		fmt.Sprintf("tool name %s is already taken by %s", name, owner),
		ErrToolNameConflict)
	e.Meta = map[string]string{MetaTools: name}
	return e
}

// MessageOf returns the human-readable part of an error.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrMalformedAction):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrUnknownServer), errors.Is(err, ErrUnknownTool):
		return CodeNotFound, true
	case errors.Is(err, ErrServerNotSummarized):
		return CodeFailedPrecond, true
	case errors.Is(err, ErrCatalogFetch):
		return CodeUnavailable, true
	case errors.Is(err, ErrToolNameConflict):
		return CodeAlreadyExists, true
	default:
		return "", false
	}
}
