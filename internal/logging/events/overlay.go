package events

import "github.com/atomicstack/tag-popup-control/internal/logging"

type OverlayTracer struct{}

type PopulateTracer struct{}

var (
	Overlay  = OverlayTracer{}
	Populate = PopulateTracer{}
)

func (OverlayTracer) Showing(name string) {
	logging.Trace("overlay.showing", map[string]interface{}{"overlay": name})
}

func (OverlayTracer) Shown(name string, generation uint64, entries int) {
	logging.Trace("overlay.shown", map[string]interface{}{
		"overlay":    name,
		"generation": generation,
		"entries":    entries,
	})
}

func (OverlayTracer) Hidden(name string) {
	logging.Trace("overlay.hidden", map[string]interface{}{"overlay": name})
}

func (OverlayTracer) ShowFailed(name string, err error) {
	payload := map[string]interface{}{"overlay": name}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("overlay.show-failed", payload)
}

func (OverlayTracer) Selection(name string, index int, key string) {
	logging.Trace("overlay.selection", map[string]interface{}{
		"overlay": name,
		"index":   index,
		"key":     key,
	})
}

func (PopulateTracer) Start(name string, generation uint64) {
	logging.Trace("populate.start", map[string]interface{}{"overlay": name, "generation": generation})
}

func (PopulateTracer) Published(name string, generation uint64, entries int) {
	logging.Trace("populate.published", map[string]interface{}{
		"overlay":    name,
		"generation": generation,
		"entries":    entries,
	})
}

func (PopulateTracer) Superseded(name string, generation, current uint64) {
	logging.Trace("populate.superseded", map[string]interface{}{
		"overlay":    name,
		"generation": generation,
		"current":    current,
	})
}

func (PopulateTracer) Failed(name string, generation uint64, err error) {
	logging.Trace("populate.failed", map[string]interface{}{
		"overlay":    name,
		"generation": generation,
		"error":      err.Error(),
	})
}

func (PopulateTracer) SourceError(name, source string, err error) {
	logging.Trace("populate.source-error", map[string]interface{}{
		"overlay": name,
		"source":  source,
		"error":   err.Error(),
	})
}
