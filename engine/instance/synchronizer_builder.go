package instance

import "github.com/Carmen-Shannon/vista-go/common"

// SynchronizerOption defines a functional option for the NewSynchronizer
// builder.
type SynchronizerOption func(*instanceSynchronizer)

// WithPoseSource attaches the pose source the synchronizer reads entity
// transforms from. Required.
//
// Parameters:
//   - src: the pose source (must not be nil)
//
// Returns:
//   - SynchronizerOption: the functional option
func WithPoseSource(src PoseSource) SynchronizerOption {
	return func(s *instanceSynchronizer) {
		if src == nil {
			panic("instance: WithPoseSource requires a non-nil source")
		}
		s.poses = src
	}
}

// WithHighlightColor overrides the tint applied to selected entities.
//
// Parameters:
//   - c: the highlight color
//
// Returns:
//   - SynchronizerOption: the functional option
func WithHighlightColor(c common.Color) SynchronizerOption {
	return func(s *instanceSynchronizer) {
		s.highlight = c
	}
}
