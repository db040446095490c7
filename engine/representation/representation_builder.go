package representation

// RepresentationOption defines a functional option for the NewRepresentation
// builder.
type RepresentationOption func(*batchedRepresentation)

// WithAsset sets the (asset, level) variant identity of the representation.
//
// Parameters:
//   - assetID: the source asset ID
//   - level: the detail level (0 = full detail)
//
// Returns:
//   - RepresentationOption: the functional option
func WithAsset(assetID string, level int) RepresentationOption {
	return func(r *batchedRepresentation) {
		r.assetID = assetID
		r.level = level
	}
}

// WithMaxSlots sets the initial slot capacity. Capacity still grows on demand
// when Claim exhausts it.
//
// Parameters:
//   - maxSlots: the initial capacity (values below 8 are clamped to 8)
//
// Returns:
//   - RepresentationOption: the functional option
func WithMaxSlots(maxSlots uint32) RepresentationOption {
	return func(r *batchedRepresentation) {
		if maxSlots < 8 {
			maxSlots = 8
		}
		r.maxSlots = maxSlots
	}
}
