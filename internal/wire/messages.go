package wire

import (
	"errors"

	"bridge/internal/engine"
)

type ClientMessage struct {
	Type      string     `json:"type"`
	ActionId  string     `json:"actionId,omitempty"`
	Action    *ActionDTO `json:"action,omitempty"`
	RequestId string     `json:"requestId,omitempty"`
}

type ServerMessage struct {
	Type   string     `json:"type"`
	State  *TableView `json:"state,omitempty"`
	Events []Event    `json:"events,omitempty"`
	Error  *ErrorView `json:"error,omitempty"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Codes outside the rule taxonomy.
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
)

// CodedError carries a transport code for failures that are not rule errors.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Code + ": " + e.Message
}

func NewError(code, message string) error {
	return &CodedError{Code: code, Message: message}
}

// ErrorFromErr tags err with its rule kind, or its transport code.
func ErrorFromErr(err error) *ErrorView {
	if err == nil {
		return nil
	}
	if kind := engine.KindOf(err); kind != "" {
		return &ErrorView{Code: string(kind), Message: err.Error()}
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return &ErrorView{Code: ce.Code, Message: ce.Message}
	}
	return &ErrorView{Code: CodeInternal, Message: err.Error()}
}
