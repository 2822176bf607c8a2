package events

import "github.com/atomicstack/tag-popup-control/internal/logging"

type AutocompleteTracer struct{}

var Autocomplete = AutocompleteTracer{}

func (AutocompleteTracer) Request(id, query string) {
	logging.Trace("autocomplete.request", map[string]interface{}{"id": id, "query": query})
}

func (AutocompleteTracer) Coalesced(query string) {
	logging.Trace("autocomplete.coalesced", map[string]interface{}{"query": query})
}

func (AutocompleteTracer) Completed(id, query string, results int) {
	logging.Trace("autocomplete.completed", map[string]interface{}{
		"id":      id,
		"query":   query,
		"results": results,
	})
}

func (AutocompleteTracer) Cleared() {
	logging.Trace("autocomplete.cleared", nil)
}

func (AutocompleteTracer) Aborted(id, query string) {
	logging.Trace("autocomplete.aborted", map[string]interface{}{"id": id, "query": query})
}

func (AutocompleteTracer) Failed(id, query string, err error) {
	logging.Trace("autocomplete.failed", map[string]interface{}{
		"id":    id,
		"query": query,
		"error": err.Error(),
	})
}
