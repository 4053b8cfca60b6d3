// Package colorpipe applies shot-specific color and geometry data to a scene:
// ST map distortion, postmove splicing, ASC CDL, 3D LUTs, flattened plates and
// audio. Lookups that miss are logged and skipped.
package colorpipe
