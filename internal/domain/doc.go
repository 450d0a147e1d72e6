// Package domain models weather observations and the binary features a
// training-suitability model scores them on.
//
// # Feature Vector
//
// Every observation is reduced to five booleans, serialized on the wire as
// 0/1 integers in this fixed order:
//
//	[outlook_rainy, outlook_sunny, temperature_hot, temperature_mild, humidity_normal]
//
// Outlook flags come from substring matches on the lower-cased condition text
// (the same wording weather providers use, e.g. "Patchy light drizzle"):
//
//	rainy: rain, rainy, drizzle, shower, thunderstorm, storm
//	sunny: sunny, clear, bright, sunshine
//
// Temperature and humidity use fixed thresholds:
//
//	hot:    temperature > 30°C
//	mild:   15°C <= temperature <= 30°C
//	normal: 40% <= humidity <= 70%
//
// Below 15°C neither temperature flag is set. At exactly 30°C only mild is set.
//
// The converter does not force outlook exclusivity: "sunny with thunderstorm"
// sets both flags. Such vectors are rejected before submission by
// [ValidateFeatures], not corrected here.
//
// # Failures
//
// Scoring calls fail with a [Failure] of a closed set of kinds (validation,
// parsing, timeout, network, server, service_unavailable, unknown). Transports
// report incomplete calls as [TransportError] values, which the orchestrator
// maps onto that set.
package domain
