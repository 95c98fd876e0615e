package kdtree

// planeEval is the classification of faces against a candidate boundary
// along one axis. extraLeft and extraRight count faces already known to be
// on each side from coarser bisection steps.
type planeEval struct {
	boundary   float64
	left       []int32
	right      []int32
	shared     []int32
	extraLeft  int
	extraRight int
}

func (e *planeEval) leftCount() int {
	return len(e.left) + e.extraLeft
}

func (e *planeEval) rightCount() int {
	return len(e.right) + e.extraRight
}

// fom is the figure of merit of the split, lower is better:
// |left - right| + shared
func (e *planeEval) fom() int {
	diff := e.leftCount() - e.rightCount()
	if diff < 0 {
		diff = -diff
	}
	return diff + len(e.shared)
}

// merge folds a finer evaluation into e, adopting its boundary
func (e *planeEval) merge(other planeEval) {
	e.boundary = other.boundary
	e.left = append(e.left, other.left...)
	e.right = append(e.right, other.right...)
	e.shared = append(e.shared, other.shared...)
}

// evaluatePlane sorts faces into left (all vertices below the boundary),
// right (all vertices at or above it) and shared.
func (t *Tree) evaluatePlane(dim int, faces []int32, e *planeEval) {
	for _, fi := range faces {
		below := 0
		for _, v := range t.faces[fi].Vertices {
			if v.Point.Axis(dim) < e.boundary {
				below++
			}
		}
		switch below {
		case 0:
			e.right = append(e.right, fi)
		case 3:
			e.left = append(e.left, fi)
		default:
			e.shared = append(e.shared, fi)
		}
	}
}

// chooseDimPlane searches for a boundary along dim within [lo, hi]. It
// bisects the interval and keeps narrowing toward the side holding more
// faces until the split is good enough or cannot improve.
func (t *Tree) chooseDimPlane(dim int, faces []int32, extraLeft, extraRight int, lo, hi float64) planeEval {
	e := planeEval{
		boundary:   (lo + hi) / 2,
		extraLeft:  extraLeft,
		extraRight: extraRight,
	}
	t.evaluatePlane(dim, faces, &e)
	fom := e.fom()

	bisectRight := e.rightCount() > e.leftCount()
	if bisectRight {
		lo = e.boundary
	} else {
		hi = e.boundary
	}

	// Stop at the resolution limit, when nothing separates, when the split
	// is already good, or when both sides hold the same number of faces
	// from this step. The last rule ignores the extra counts and can stop
	// early on unbalanced splits; it is kept as is.
	if hi-lo < t.resolution ||
		fom == len(faces) ||
		fom < fomThreshold ||
		len(e.right) == len(e.left) {
		return e
	}

	// refine the shared faces together with the heavier side
	var refine []int32
	refine = append(refine, e.shared...)
	e.shared = nil
	if bisectRight {
		extraLeft = e.leftCount()
		refine = append(refine, e.right...)
		e.right = nil
	} else {
		extraRight = e.rightCount()
		refine = append(refine, e.left...)
		e.left = nil
	}

	finer := t.chooseDimPlane(dim, refine, extraLeft, extraRight, lo, hi)
	e.merge(finer)
	return e
}
