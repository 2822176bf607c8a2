package events

import "github.com/atomicstack/tag-popup-control/internal/logging"

type InputTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

type MenuTracer struct{}

var (
	Input   = InputTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
	Menu    = MenuTracer{}
)

func (InputTracer) Changed(text, origin string) {
	logging.Trace("input.changed", map[string]interface{}{"text": text, "origin": origin})
}

func (InputTracer) Submit(text string) {
	logging.Trace("input.submit", map[string]interface{}{"text": text})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (CommandTracer) Queue(run, id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"run": run, "id": id, "label": label})
}

func (CommandTracer) Skip(run, id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"run": run, "id": id, "label": label})
}

func (CommandTracer) NoOp(run, id, label string) {
	logging.Trace("command.noop", map[string]interface{}{"run": run, "id": id, "label": label})
}

func (CommandTracer) Result(run, id, label, msgType string) {
	logging.Trace("command.result", map[string]interface{}{"run": run, "id": id, "label": label, "msg": msgType})
}

func (MenuTracer) Enter(level, id, label string) {
	logging.Trace("menu.enter", map[string]interface{}{"level": level, "id": id, "label": label})
}

func (MenuTracer) Cursor(level string, cursor int) {
	logging.Trace("menu.cursor", map[string]interface{}{"level": level, "cursor": cursor})
}
