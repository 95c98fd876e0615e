package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

func TestLightSphere_SubtendedProbability(t *testing.T) {
	light := NewLightSphere(1)
	light.Place(Placement{Pos: core.NewVec3(0, 10, 0), Scale: 0.5})

	previous := 0.0
	for _, distance := range []float64{0.6, 0.75, 1, 2, 4, 8, 16, 100} {
		viewpoint := core.NewVec3(0, 10-distance, 0)
		p := light.SubtendedProbability(viewpoint)
		if p < 1 {
			t.Errorf("distance %f: probability %f < 1", distance, p)
		}
		// a farther light subtends a smaller cone
		if p <= previous {
			t.Errorf("distance %f: probability %f did not increase from %f", distance, p, previous)
		}
		previous = p
	}
}

func TestLightSphere_InsideViewpoint(t *testing.T) {
	light := NewLightSphere(2)

	if got := light.CosThetaMax(core.NewVec3(0.5, 0, 0)); got != 0 {
		t.Errorf("Expected cosThetaMax 0 inside the sphere, got %f", got)
	}
	if got := light.SubtendedProbability(core.NewVec3(0.5, 0, 0)); got != 1 {
		t.Errorf("Expected probability 1 inside the sphere, got %f", got)
	}
}

func TestLightSphere_CosThetaMax(t *testing.T) {
	light := NewLightSphere(1)
	// sin(thetaMax) = 1/2 at distance 2
	expected := math.Sqrt(3) / 2
	if got := light.CosThetaMax(core.NewVec3(0, 0, 2)); math.Abs(got-expected) > 1e-12 {
		t.Errorf("Expected %f, got %f", expected, got)
	}
}

func TestLightSphere_SampledDirectionsAreSubtended(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	light := NewLightSphere(1)
	light.Place(Placement{Pos: core.NewVec3(3, -2, 5), Scale: 1.5})

	viewpoints := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(3, -2, 0),  // directly below along -z
		core.NewVec3(3, -2, 10), // directly above along +z
		core.NewVec3(20, 4, -7),
	}

	for _, viewpoint := range viewpoints {
		cosThetaMax := light.CosThetaMax(viewpoint)
		axis := light.Pos.Subtract(viewpoint).Normalize()
		for i := 0; i < 200; i++ {
			// keep away from the cone rim where the discriminant vanishes
			u := random.Float64() * 0.95
			v := random.Float64()
			dir := light.SubtendedDir(viewpoint, u, v)

			if math.Abs(dir.Length()-1) > 1e-9 {
				t.Fatalf("viewpoint %v: direction not unit length: %v", viewpoint, dir)
			}
			if dir.Dot(axis) < cosThetaMax-1e-9 {
				t.Fatalf("viewpoint %v: direction %v outside cone", viewpoint, dir)
			}
			if !light.IsSubtended(viewpoint, dir) {
				t.Fatalf("viewpoint %v: sampled direction %v not subtended", viewpoint, dir)
			}
		}
	}
}

func TestLightSphere_IsSubtendedRejectsOtherDirections(t *testing.T) {
	light := NewLightSphere(1)
	light.Place(Placement{Pos: core.NewVec3(0, 0, 10), Scale: 1})

	if light.IsSubtended(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)) {
		t.Errorf("Perpendicular direction should not be subtended")
	}
	if !light.IsSubtended(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)) {
		t.Errorf("Direction toward center should be subtended")
	}
}
