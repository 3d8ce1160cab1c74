package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/pomo/internal/model"
)

type Type string

const (
	TypeSet   Type = "set"
	TypePlay  Type = "play"
	TypePause Type = "pause"
	TypeReset Type = "reset"
	TypeBack  Type = "back"
	TypeShow  Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type SetArgs struct {
	Minutes int
}

// ModeArgs names the timer a command applies to. ModeNone means the timer
// on the current screen.
type ModeArgs struct {
	Mode model.Mode
}

type Command struct {
	Type Type
	Raw  string
	Set  *SetArgs
	Mode *ModeArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeSet:
		return parseSet(input, args)
	case TypePlay, TypePause, TypeReset:
		return parseOptionalMode(input, Type(head), args)
	case TypeShow:
		if len(args) == 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a mode"}
		}
		return parseOptionalMode(input, TypeShow, args)
	case TypeBack:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "back takes no arguments"}
		}
		return Command{Type: TypeBack, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseSet(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "set requires minutes"}
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[0]), "m"))
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("minutes must be a number: %s", args[0])}
	}
	if err := model.ValidateMinutes(n); err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeSet, Raw: raw, Set: &SetArgs{Minutes: n}}, nil
}

func parseOptionalMode(raw string, typ Type, args []string) (Command, error) {
	if len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes at most one mode", typ)}
	}
	mode := model.ModeNone
	if len(args) == 1 {
		m, err := model.ParseMode(args[0])
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown mode: %s", args[0])}
		}
		mode = m
	}
	return Command{Type: typ, Raw: raw, Mode: &ModeArgs{Mode: mode}}, nil
}
