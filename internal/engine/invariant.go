package engine

import "github.com/rs/zerolog/log"

// invariant panics if cond is false. It is used for conditions that can
// only fail due to a programming error in the caller (e.g. removing
// exposure for an order that was never added) — these are never
// request-level rejections and must never be silently tolerated, since
// that would imply corrupted accounting.
func invariant(cond bool, msg string) {
	if !cond {
		log.Error().Str("invariant", msg).Msg("engine invariant violated")
		panic("engine invariant violated: " + msg)
	}
}
