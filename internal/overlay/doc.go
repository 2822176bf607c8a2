// Package overlay implements the lifecycle shared by every transient popup:
// visibility, asynchronous population, and keyboard selection.
//
// A Controller owns one overlay's visible state, entry list, and selection.
// Showing an overlay starts a population through its Pipeline; hiding it
// cancels that population. Every population is identified by a generation
// number and a context. The pipeline publishes a result only while holding
// its lock and only if the population is still the newest and its context is
// live, so once Cancel returns no older population can mutate the overlay.
//
// Builders perform the suspending work (history snapshot, translation
// lookup) and check their context after each suspension point. Collaborator
// failures inside a builder degrade to missing data rather than failing the
// population.
//
// Cross-overlay effects go through explicit calls: a Group hides its other
// members before one is shown, and ViewHidden hides every subscribed overlay
// when the surrounding view closes.
package overlay
