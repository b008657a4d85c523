package landmark

import "math"

// EstimateQuality scores how usable a detection is for matching, in [0, 1].
// It blends key point coverage with left/right symmetry relative to the nose
// tip. Frontal, fully detected faces score close to 1; profile views and
// partial detections score lower. Used to fill Quality when the detector
// does not report its own confidence.
func EstimateQuality(s Set) float64 {
	if len(s.KeyPoints) == 0 {
		return 0
	}

	coverage := float64(len(s.KeyPoints)) / float64(ExpectedKeyPointCount)
	if coverage > 1 {
		coverage = 1
	}

	return 0.6*coverage + 0.4*symmetry(s)
}

// symmetry compares nose tip distances of mirrored point pairs. A perfectly
// frontal face yields 1, a strong profile view approaches 0.
func symmetry(s Set) float64 {
	nose, ok := s.KeyPoint(NoseTip)
	if !ok {
		return 0
	}

	pairs := [][2]string{
		{LeftEyeOuter, RightEyeOuter},
		{LeftEyeInner, RightEyeInner},
		{MouthLeft, MouthRight},
		{LeftCheek, RightCheek},
		{JawLeft, JawRight},
	}

	total, compared := 0.0, 0
	for _, pair := range pairs {
		left, okL := s.KeyPoint(pair[0])
		right, okR := s.KeyPoint(pair[1])
		if !okL || !okR {
			continue
		}
		dl := nose.Distance(left)
		dr := nose.Distance(right)
		if dl == 0 && dr == 0 {
			continue
		}
		// Relative difference of the two distances, 0 for perfect mirror.
		total += math.Abs(dl-dr) / max(dl, dr)
		compared++
	}
	if compared == 0 {
		return 0
	}

	asymmetry := total / float64(compared)
	if asymmetry > 1 {
		asymmetry = 1
	}
	return 1 - asymmetry
}
