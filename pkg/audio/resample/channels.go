package resample

// ConvertChannels converts the channel layout with a fixed policy:
//
//   - N -> 1 (N >= 2): arithmetic mean of all channels per frame;
//   - 1 -> 2: the mono channel duplicated into both outputs;
//   - an exact match, or any mapping not covered above (a caller contract
//     violation): input passed through unchanged.
func ConvertChannels(planes [][]float64, target int) [][]float64 {
	switch {
	case len(planes) == target:
		return planes
	case target == 1 && len(planes) >= 2:
		frames := len(planes[0])
		mono := make([]float64, frames)
		for frame := 0; frame < frames; frame++ {
			var sum float64
			for _, plane := range planes {
				sum += plane[frame]
			}
			mono[frame] = sum / float64(len(planes))
		}
		return [][]float64{mono}
	case target == 2 && len(planes) == 1:
		left := planes[0]
		right := make([]float64, len(left))
		copy(right, left)
		return [][]float64{left, right}
	default:
		return planes
	}
}
