// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import "strings"

// Reasons attached to results.
const (
	ReasonContent   = "content match"
	ReasonBehavior  = "matches reading habits"
	ReasonPopular   = "very popular"
	ReasonDiscovery = "discovery suggestion"
	ReasonSimilar   = "similar content"
	ReasonTrending  = "trending now"
	ReasonFallback  = "popular fallback"

	reasonSeparator = " • "
)

// blendReason explains a personalized or category score from its parts.
func blendReason(content, behavior, popularity float64) string {
	parts := make([]string, 0, 3)
	if content > ReasonContentThreshold {
		parts = append(parts, ReasonContent)
	}
	if behavior > ReasonBehaviorThreshold {
		parts = append(parts, ReasonBehavior)
	}
	if popularity > ReasonPopularityThreshold {
		parts = append(parts, ReasonPopular)
	}
	if len(parts) == 0 {
		return ReasonDiscovery
	}
	return strings.Join(parts, reasonSeparator)
}
