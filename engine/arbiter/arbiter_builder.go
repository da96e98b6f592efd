package arbiter

import "github.com/Carmen-Shannon/oxy-pano/engine/material"

// ArbiterBuilderOption is a functional option for configuring an Arbiter via NewArbiter.
type ArbiterBuilderOption func(*arbiterImpl)

// WithErrorTile enables or disables the placeholder shown on patches whose tile failed.
//
// Parameters:
//   - enabled: true to show the placeholder
//
// Returns:
//   - ArbiterBuilderOption: a function that applies the option to an arbiter
func WithErrorTile(enabled bool) ArbiterBuilderOption {
	return func(a *arbiterImpl) {
		a.showError = enabled
	}
}

// WithErrorMaterial replaces the generated error placeholder.
//
// Parameters:
//   - m: the placeholder material
//
// Returns:
//   - ArbiterBuilderOption: a function that applies the material to an arbiter
func WithErrorMaterial(m material.Material) ArbiterBuilderOption {
	return func(a *arbiterImpl) {
		a.errorMat = m
	}
}
