package httperr

import "errors"

// BadRequestError is a client input error that carries the envelope code the
// HTTP layer should answer with.
type BadRequestError struct {
	code string
	msg  string
}

func (e *BadRequestError) Error() string { return e.msg }

func (e *BadRequestError) Code() string { return e.code }

func NewBadRequest(code string, msg string) error {
	return &BadRequestError{code: code, msg: msg}
}

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}

// AsBadRequest unwraps err to its code and message.
func AsBadRequest(err error) (code string, msg string, ok bool) {
	e, ok := errors.AsType[*BadRequestError](err)
	if !ok || e == nil {
		return "", "", false
	}
	return e.code, e.msg, true
}
