package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// subscriber is the part of *nats.Conn the command intake needs.
type subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// reply is the response to a request on the commands subject.
type reply struct {
	Event domain.Event `json:"event,omitempty"`
	Error *replyError  `json:"error,omitempty"`
}

type replyError struct {
	Kind    string `json:"kind"`
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// CommandSubscriber feeds command lines published on a NATS subject into
// the command runner. Requests (messages with a reply subject) get the
// outcome back as JSON.
//
// With an empty queue group every instance receives every command, which
// keeps instances with their own in-memory stores in step. A queue group
// hands each command to exactly one member.
type CommandSubscriber struct {
	conn       subscriber
	runner     ports.CommandRunner
	subject    string
	queueGroup string
	sub        *nats.Subscription
}

// NewCommandSubscriber creates a subscriber sharing a NATS connection.
func NewCommandSubscriber(conn subscriber, subject, queueGroup string, runner ports.CommandRunner) *CommandSubscriber {
	return &CommandSubscriber{conn: conn, runner: runner, subject: subject, queueGroup: queueGroup}
}

// Start subscribes to the commands subject.
func (s *CommandSubscriber) Start(ctx context.Context) error {
	handler := func(msg *nats.Msg) {
		out := s.handle(ctx, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(out); err != nil {
			slog.Warn("nats command reply", "subject", s.subject, "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if s.queueGroup != "" {
		sub, err = s.conn.QueueSubscribe(s.subject, s.queueGroup, handler)
	} else {
		sub, err = s.conn.Subscribe(s.subject, handler)
	}
	if err != nil {
		return err
	}
	s.sub = sub
	slog.Info("listening for commands", "subject", s.subject, "queue_group", s.queueGroup)
	return nil
}

func (s *CommandSubscriber) handle(ctx context.Context, data []byte) []byte {
	var r reply
	event, err := s.runner.Execute(ctx, "nats", string(data))
	if err != nil {
		r.Error = &replyError{
			Kind:    usecases.FailureKind(err),
			Command: usecases.FailureCommand(err),
			Message: usecases.FailureReason(err),
		}
	} else {
		r.Event = event
	}

	out, err := json.Marshal(r)
	if err != nil {
		return []byte(`{"error":{"kind":"internal","message":"encode reply"}}`)
	}
	return out
}

// Close unsubscribes.
func (s *CommandSubscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
}
