package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

// Wire encodings for published events.
const (
	EncodingJSON  = "json"
	EncodingProto = "proto"
)

const (
	streamName      = "MAP_EVENTS"
	contentTypeJSON = "application/json"
	// google.protobuf.Struct, the event's JSON object as a protobuf message
	contentTypeProto = "application/x-protobuf; messageType=google.protobuf.Struct"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
// Events go to <prefix>.<action>, e.g. mapcat.events.remove-by-tag.
type Publisher struct {
	js       nats.JetStreamContext
	prefix   string
	encoding string
}

// Connect opens a NATS connection that keeps retrying in the background.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("mapcat"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NewPublisher enables JetStream on conn and ensures the events stream exists.
func NewPublisher(conn *nats.Conn, prefix, encoding string) (*Publisher, error) {
	if encoding != EncodingProto {
		encoding = EncodingJSON
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{prefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{js: js, prefix: prefix, encoding: encoding}, nil
}

func (p *Publisher) Name() string { return "nats" }

// Subject returns the subject an action is published on.
func (p *Publisher) Subject(action domain.Action) string {
	return p.prefix + "." + string(action)
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	data, contentType, err := Encode(event, p.encoding)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.Subject(event.Action()))
	msg.Data = data
	msg.Header.Set("Content-Type", contentType)
	msg.Header.Set("Mapcat-Action", string(event.Action()))

	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Encode renders an event in the given encoding and returns its content type.
// The proto form carries the same object as the JSON form.
func Encode(event domain.Event, encoding string) ([]byte, string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s event: %w", event.Action(), err)
	}
	if encoding != EncodingProto {
		return data, contentTypeJSON, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, "", err
	}
	st, err := structpb.NewStruct(obj)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s event: %w", event.Action(), err)
	}
	out, err := proto.Marshal(st)
	if err != nil {
		return nil, "", err
	}
	return out, contentTypeProto, nil
}

// DecodeProto reverses the proto encoding into the event's JSON object.
func DecodeProto(data []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}
