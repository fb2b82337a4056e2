package view

import "sync"

// NoticeLevel distinguishes passive notices from interrupting alerts.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeAlert NoticeLevel = "alert"
)

// Notice is a message delivered outside the document tree.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier receives messages that do not live in a document region: Notify
// for passive messages, Alert for acknowledgements the operator has to see.
type Notifier interface {
	Notify(message string)
	Alert(message string)
}

// Notices is a Notifier that records messages until drained. It is safe for
// concurrent use.
type Notices struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *Notices) Notify(message string) {
	n.add(NoticeInfo, message)
}

func (n *Notices) Alert(message string) {
	n.add(NoticeAlert, message)
}

// List returns the recorded notices without draining them.
func (n *Notices) List() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Drain returns and forgets the recorded notices.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.notices
	n.notices = nil
	return out
}

func (n *Notices) add(level NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Message: message})
}

// NotifierFuncs adapts plain functions to Notifier. Nil funcs drop messages.
type NotifierFuncs struct {
	OnNotify func(string)
	OnAlert  func(string)
}

func (f NotifierFuncs) Notify(message string) {
	if f.OnNotify != nil {
		f.OnNotify(message)
	}
}

func (f NotifierFuncs) Alert(message string) {
	if f.OnAlert != nil {
		f.OnAlert(message)
	}
}

// Fanout delivers every message to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(message string) {
	for _, n := range f {
		if n != nil {
			n.Notify(message)
		}
	}
}

func (f Fanout) Alert(message string) {
	for _, n := range f {
		if n != nil {
			n.Alert(message)
		}
	}
}
