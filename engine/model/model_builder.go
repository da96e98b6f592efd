package model

// SphereBuilderOption is a functional option for configuring a Sphere via NewSphere.
type SphereBuilderOption func(*sphere)

// WithResolution is an option builder that sets the number of horizontal segments.
// The sphere gets resolution/2 vertical segments.
//
// Parameters:
//   - resolution: horizontal segment count, even and >= 4
//
// Returns:
//   - SphereBuilderOption: a function that applies the resolution option to a sphere
func WithResolution(resolution int) SphereBuilderOption {
	return func(s *sphere) {
		s.cols = resolution
		s.rows = resolution / 2
	}
}

// WithRadius is an option builder that sets the sphere radius.
//
// Parameters:
//   - radius: the radius
//
// Returns:
//   - SphereBuilderOption: a function that applies the radius option to a sphere
func WithRadius(radius float32) SphereBuilderOption {
	return func(s *sphere) {
		s.radius = radius
	}
}

// WithRotation is an option builder that sets the initial mesh rotation, in radians.
//
// Parameters:
//   - x, y, z: rotation angles around each axis
//
// Returns:
//   - SphereBuilderOption: a function that applies the rotation option to a sphere
func WithRotation(x, y, z float32) SphereBuilderOption {
	return func(s *sphere) {
		s.rotation = [3]float32{x, y, z}
	}
}
