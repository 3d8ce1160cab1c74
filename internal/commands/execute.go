package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Set   func(SetArgs) (Result, error)
	Play  func(ModeArgs) (Result, error)
	Pause func(ModeArgs) (Result, error)
	Reset func(ModeArgs) (Result, error)
	Back  func() (Result, error)
	Show  func(ModeArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeSet:
		if handlers.Set == nil {
			return Result{}, missing(cmd.Type)
		}
		if cmd.Set == nil {
			return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "set requires minutes"}
		}
		return handlers.Set(*cmd.Set)
	case TypePlay:
		return dispatchMode(cmd, handlers.Play)
	case TypePause:
		return dispatchMode(cmd, handlers.Pause)
	case TypeReset:
		return dispatchMode(cmd, handlers.Reset)
	case TypeShow:
		return dispatchMode(cmd, handlers.Show)
	case TypeBack:
		if handlers.Back == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Back()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func dispatchMode(cmd Command, fn func(ModeArgs) (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(cmd.Type)
	}
	var args ModeArgs
	if cmd.Mode != nil {
		args = *cmd.Mode
	}
	return fn(args)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
