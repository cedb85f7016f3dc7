package syncfault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a remote call failed.
type Kind string

const (
	KindTransport Kind = "TRANSPORT"
	KindAuth      Kind = "AUTH"
	KindServer    Kind = "SERVER"
	KindDecode    Kind = "DECODE"
)

// Fault wraps every failure coming back from the remote registry. It is the only
// error kind the sync layer surfaces; nothing at this layer retries it.
type Fault struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("sync fault: kind=")
	b.WriteString(string(f.Kind))
	if f.Op != "" {
		b.WriteString(" op=")
		b.WriteString(f.Op)
	}
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", f.StatusCode)
	}
	if msg := strings.TrimSpace(f.Message); msg != "" {
		b.WriteString(" msg=")
		b.WriteString(msg)
	}
	if f.Err != nil {
		b.WriteString(" err=")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Fault) Unwrap() error { return f.Err }

func Transport(op string, err error) *Fault {
	return &Fault{Kind: KindTransport, Op: op, Err: err}
}

func Decode(op string, err error) *Fault {
	return &Fault{Kind: KindDecode, Op: op, Err: err}
}

// FromStatus maps a non-2xx HTTP status to AUTH (401/403) or SERVER.
func FromStatus(op string, status int, message string) *Fault {
	kind := KindServer
	if status == 401 || status == 403 {
		kind = KindAuth
	}
	return &Fault{Kind: kind, Op: op, StatusCode: status, Message: message}
}

func As(err error) (*Fault, bool) {
	f, ok := errors.AsType[*Fault](err)
	if !ok || f == nil {
		return nil, false
	}
	return f, true
}

func KindOf(err error) (Kind, bool) {
	f, ok := As(err)
	if !ok {
		return "", false
	}
	return f.Kind, true
}

func IsAuth(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindAuth
}
