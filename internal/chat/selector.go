package chat

import (
	"github.com/qbitlm/qbit/internal/notebook"
)

// Strategy names the single request shape a submission will use.
type Strategy string

const (
	// StrategyGeneral streams a plain chat answer with full history.
	StrategyGeneral Strategy = "general"

	// StrategyDocument streams an answer framed on a text or file
	// source whose content is embedded in the system instruction.
	StrategyDocument Strategy = "document"

	// StrategyGrounded issues one non-streaming search-grounded
	// request restricted to a website source's URL.
	StrategyGrounded Strategy = "grounded"

	// StrategyMedia issues one stateless non-streaming request
	// carrying the media payload.
	StrategyMedia Strategy = "media"

	// StrategyUnavailable means the focused source cannot back a
	// request (media payload stripped by persistence). Nothing may
	// be dispatched; the caller shows a re-add prompt instead.
	StrategyUnavailable Strategy = "unavailable"
)

// Select maps the focused source (nil means no focus) to exactly one
// strategy. The mapping is total over origin types.
func Select(source *notebook.Source) Strategy {
	if source == nil {
		return StrategyGeneral
	}
	switch source.Origin.Type {
	case notebook.OriginText, notebook.OriginFile:
		return StrategyDocument
	case notebook.OriginWebsite:
		return StrategyGrounded
	case notebook.OriginImage, notebook.OriginVideo:
		if !source.Usable() {
			return StrategyUnavailable
		}
		return StrategyMedia
	default:
		return StrategyUnavailable
	}
}
