package landmark

// RatioCount is the dimension of the facial ratio vector.
const RatioCount = 10

// Ratio vector slot indexes. Each slot holds a facial distance divided by
// the inter-ocular distance, making the vector invariant to translation,
// scale and in-plane rotation. A slot is 0 when a required point is missing.
const (
	RatioNoseLength = iota
	RatioNoseWidth
	RatioMouthWidth
	RatioEyeToMouth
	RatioEyeToChin
	RatioJawWidth
	RatioFaceHeight
	RatioEyeWidth
	RatioNoseToMouth
	RatioCheekWidth
)

// Ratios computes the facial ratio vector from the set's named key points.
// The vector is all zeros when the outer eye corners are missing, since
// every slot is normalized by the inter-ocular distance.
func Ratios(s Set) [RatioCount]float64 {
	var r [RatioCount]float64

	iod := s.InterOcularDistance()
	if iod <= 0 {
		return r
	}

	idx := s.keyPointIndex()
	dist := func(a, b string) float64 {
		pa, okA := idx[a]
		pb, okB := idx[b]
		if !okA || !okB {
			return 0
		}
		return pa.Distance(pb) / iod
	}

	r[RatioNoseLength] = dist(NoseBridge, NoseTip)
	r[RatioNoseWidth] = dist(NoseLeft, NoseRight)
	r[RatioMouthWidth] = dist(MouthLeft, MouthRight)
	r[RatioJawWidth] = dist(JawLeft, JawRight)
	r[RatioFaceHeight] = dist(Forehead, Chin)
	r[RatioCheekWidth] = dist(LeftCheek, RightCheek)

	// Eye width averages both palpebral fissures; one side is enough.
	leftWidth := dist(LeftEyeOuter, LeftEyeInner)
	rightWidth := dist(RightEyeOuter, RightEyeInner)
	switch {
	case leftWidth > 0 && rightWidth > 0:
		r[RatioEyeWidth] = (leftWidth + rightWidth) / 2
	case leftWidth > 0:
		r[RatioEyeWidth] = leftWidth
	default:
		r[RatioEyeWidth] = rightWidth
	}

	// Midpoint-based slots need both mouth corners or both eye corners.
	leftEye, okLE := idx[LeftEyeOuter]
	rightEye, okRE := idx[RightEyeOuter]
	mouthL, okML := idx[MouthLeft]
	mouthR, okMR := idx[MouthRight]
	if okML && okMR {
		mouthMid := mouthL.Midpoint(mouthR)
		if okLE && okRE {
			eyeMid := leftEye.Midpoint(rightEye)
			r[RatioEyeToMouth] = eyeMid.Distance(mouthMid) / iod
		}
		if nose, ok := idx[NoseTip]; ok {
			r[RatioNoseToMouth] = nose.Distance(mouthMid) / iod
		}
	}
	if chin, ok := idx[Chin]; ok && okLE && okRE {
		eyeMid := leftEye.Midpoint(rightEye)
		r[RatioEyeToChin] = eyeMid.Distance(chin) / iod
	}

	return r
}

// Signature converts the ratio vector to float32 for vector storage and
// approximate nearest neighbor search.
func Signature(s Set) []float32 {
	ratios := Ratios(s)
	sig := make([]float32, RatioCount)
	for i, v := range ratios {
		sig[i] = float32(v)
	}
	return sig
}
