package realtime

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// Disabled stands in for the Channel when no WebSocket endpoint is
// configured. Views still register handlers; nothing is ever pushed.
type Disabled struct{}

func (Disabled) Connect(context.Context, string) error { return nil }
func (Disabled) IsConnected() bool                     { return false }
func (Disabled) AddHandler(string, ports.PushHandler)  {}
func (Disabled) RemoveHandler(string)                  {}
func (Disabled) Close() error                          { return nil }
