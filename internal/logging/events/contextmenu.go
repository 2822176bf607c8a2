package events

import "github.com/atomicstack/tag-popup-control/internal/logging"

type ContextMenuTracer struct{}

var ContextMenu = ContextMenuTracer{}

func (ContextMenuTracer) Phase(from, to string) {
	logging.Trace("contextmenu.phase", map[string]interface{}{"from": from, "to": to})
}

func (ContextMenuTracer) Open(x, y int) {
	logging.Trace("contextmenu.open", map[string]interface{}{"x": x, "y": y})
}

func (ContextMenuTracer) Close(reason string) {
	logging.Trace("contextmenu.close", map[string]interface{}{"reason": reason})
}

func (ContextMenuTracer) NativeBlocked(phase string) {
	logging.Trace("contextmenu.native-blocked", map[string]interface{}{"phase": phase})
}
