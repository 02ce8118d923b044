package hostsim

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Segment is an in-memory save segment.
type Segment struct {
	Records map[model.ResourceKey][]byte
}

// NewSegment creates an empty segment.
func NewSegment() *Segment {
	return &Segment{Records: make(map[model.ResourceKey][]byte)}
}

// OpenIStream opens a stored record for reading.
func (s *Segment) OpenIStream(key model.ResourceKey) (io.ReadCloser, error) {
	data, ok := s.Records[key]
	if !ok {
		return nil, fmt.Errorf("%w: record %08x:%08x:%08x", common.ErrNotFound, key.Type, key.Group, key.Instance)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// OpenOStream opens a record for writing. The record is stored on Close.
func (s *Segment) OpenOStream(key model.ResourceKey, replace bool) (io.WriteCloser, error) {
	if _, exists := s.Records[key]; exists && !replace {
		return nil, fmt.Errorf("%w: record %08x:%08x:%08x exists", common.ErrHostRejected, key.Type, key.Group, key.Instance)
	}
	return &segmentWriter{segment: s, key: key}, nil
}

type segmentWriter struct {
	segment *Segment
	key     model.ResourceKey
	buf     bytes.Buffer
}

func (w *segmentWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *segmentWriter) Close() error {
	w.segment.Records[w.key] = w.buf.Bytes()
	return nil
}

// MessageServer routes notifications to registered targets.
type MessageServer struct {
	targets map[uint32][]service.MessageTarget
}

// NewMessageServer creates an empty message server.
func NewMessageServer() *MessageServer {
	return &MessageServer{targets: make(map[uint32][]service.MessageTarget)}
}

// AddNotification registers target for messageType.
func (m *MessageServer) AddNotification(target service.MessageTarget, messageType uint32) bool {
	for _, t := range m.targets[messageType] {
		if t == target {
			return false
		}
	}
	m.targets[messageType] = append(m.targets[messageType], target)
	return true
}

// RemoveNotification unregisters target for messageType.
func (m *MessageServer) RemoveNotification(target service.MessageTarget, messageType uint32) bool {
	targets := m.targets[messageType]
	for i, t := range targets {
		if t == target {
			m.targets[messageType] = append(targets[:i], targets[i+1:]...)
			return true
		}
	}
	return false
}

// Subscribers returns the number of targets registered for messageType.
func (m *MessageServer) Subscribers(messageType uint32) int {
	return len(m.targets[messageType])
}

// Send delivers msg to every target registered for its type.
func (m *MessageServer) Send(msg service.Message) {
	for _, t := range m.targets[msg.Type] {
		t.DoMessage(msg)
	}
}
