package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Level classifies a user facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier delivers short user facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) {
	log.Info().Str("notify", string(LevelSuccess)).Msg(msg)
}

func (LogNotifier) Error(msg string) {
	log.Warn().Str("notify", string(LevelError)).Msg(msg)
}

func (LogNotifier) Info(msg string) {
	log.Info().Str("notify", string(LevelInfo)).Msg(msg)
}

// WriterNotifier prints one line per notification, prefixed with its level.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Success(msg string) { fmt.Fprintf(n.W, "[ok] %s\n", msg) }
func (n WriterNotifier) Error(msg string)   { fmt.Fprintf(n.W, "[error] %s\n", msg) }
func (n WriterNotifier) Info(msg string)    { fmt.Fprintf(n.W, "[info] %s\n", msg) }

// Message is a recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of what was recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent notification, or the zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}
	}
	return r.messages[len(r.messages)-1]
}
