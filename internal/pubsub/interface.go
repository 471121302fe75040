package pubsub

import "context"

// PubSubClient publishes tournament events and decodes received ones.
type PubSubClient interface {
	SendMessage(ctx context.Context, topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
	Close()
}
