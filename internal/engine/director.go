package engine

import (
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Host message ids the director subscribes to.
const (
	MessagePostCityInit     uint32 = 0x26D31EC1
	MessagePostCityShutdown uint32 = 0x26D31EC3
	MessageInsertOccupant   uint32 = 0x99EF1142
	MessageRemoveOccupant   uint32 = 0x99EF1143
	MessageLoad             uint32 = 0x26C63341
	MessageSave             uint32 = 0x26C63344
	MessageSimNewMonth      uint32 = 0x66956816
)

// DirectorID identifies the plugin to the host.
const DirectorID uint32 = 0x810A913B

// MessageIDs lists every message the director handles.
var MessageIDs = []uint32{
	MessagePostCityInit,
	MessagePostCityShutdown,
	MessageInsertOccupant,
	MessageRemoveOccupant,
	MessageLoad,
	MessageSave,
	MessageSimNewMonth,
}

// Director is the plugin entry point. It owns the Manager and routes host
// notifications to it.
type Director struct {
	manager *Manager
	logger  *slog.Logger
}

// NewDirector creates a director owning manager.
func NewDirector(manager *Manager, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{manager: manager, logger: logger}
}

// Manager returns the owned manager.
func (d *Director) Manager() *Manager {
	return d.manager
}

// Start subscribes the director to its messages.
func (d *Director) Start(server service.MessageServer) error {
	if server == nil {
		return fmt.Errorf("%w: message server", common.ErrHostUnavailable)
	}

	var failed []string
	for _, id := range MessageIDs {
		if !server.AddNotification(d, id) {
			failed = append(failed, common.Hex(id))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: notifications %v", common.ErrHostRejected, failed)
	}
	return nil
}

// Stop unsubscribes the director from its messages.
func (d *Director) Stop(server service.MessageServer) {
	if server == nil {
		return
	}
	for _, id := range MessageIDs {
		server.RemoveNotification(d, id)
	}
}

// DoMessage implements service.MessageTarget. Messages with an unexpected
// payload are ignored.
func (d *Director) DoMessage(msg service.Message) bool {
	switch msg.Type {
	case MessagePostCityInit:
		city, _ := msg.Data.(service.City)
		d.manager.PostCityInit(city)
	case MessagePostCityShutdown:
		d.manager.PostCityShutdown()
	case MessageInsertOccupant:
		if occupant, ok := msg.Data.(service.Occupant); ok {
			d.manager.InsertOccupant(occupant)
		}
	case MessageRemoveOccupant:
		if occupant, ok := msg.Data.(service.Occupant); ok {
			d.manager.RemoveOccupant(occupant)
		}
	case MessageLoad:
		if segment, ok := msg.Data.(service.DBSegment); ok {
			_ = d.manager.Load(segment)
		}
	case MessageSave:
		if segment, ok := msg.Data.(service.DBSegment); ok {
			_ = d.manager.Save(segment)
		}
	case MessageSimNewMonth:
		d.manager.SimNewMonth()
	default:
		d.logger.Debug("Ignoring message", "type", common.Hex(msg.Type))
	}
	return true
}
