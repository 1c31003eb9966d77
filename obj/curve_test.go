package obj

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/binzume/mmobj/geom"
)

func squarePoints() []geom.Vector3 {
	return []geom.Vector3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}}
}

func TestClosedPolyCurve(t *testing.T) {
	curve := &Curve{Splines: []*Spline{{Type: SplinePoly, Cyclic: true, Points: squarePoints()}}}
	out := exportString(t, nil, &Object{Name: "Ring", Curve: curve})

	want := []string{"g Ring", "cstype bspline", "deg 1", "curv 0.0 1.0 -1 -2 -3 -4 -1"}
	var got []string
	for _, prefix := range []string{"g ", "cstype ", "deg ", "curv "} {
		got = append(got, linesWithPrefix(out, prefix)...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("curve block: ", got)
	}
	if lines := linesWithPrefix(out, "parm u "); !reflect.DeepEqual(lines, []string{"parm u 0.000000 0.166667 0.333333 0.500000 0.666667 0.833333 1.000000"}) {
		t.Error("parm: ", lines)
	}
	if n := len(linesWithPrefix(out, "v ")); n != 4 {
		t.Error("control points: ", n)
	}
}

func TestCurveIndices(t *testing.T) {
	if got := curveIndices(3, 5, true); !reflect.DeepEqual(got, []int{-1, -2, -3, -4, -5, -1, -2, -3}) {
		t.Error("closed cubic: ", got)
	}
	if got := curveIndices(2, 3, false); !reflect.DeepEqual(got, []int{-1, -2, -3}) {
		t.Error("open: ", got)
	}
}

func TestCurveParams(t *testing.T) {
	got := curveParams(3, 5, true)
	want := []float64{0, 0, 0, 0, 0.5, 1, 1, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Error("endpoints: ", got)
	}
	if got := curveParams(1, 2, false); !reflect.DeepEqual(got, []float64{0, 1.0 / 3, 2.0 / 3, 1}) {
		t.Error("uniform: ", got)
	}
}

func TestCurveSkipsUnsupportedSplines(t *testing.T) {
	curve := &Curve{Splines: []*Spline{
		{Type: SplineNURBS, Order: 4, Points: make([]geom.Vector3, 3)},
		{Type: SplineNURBS, Order: 4, PointCountV: 2, Points: make([]geom.Vector3, 8)},
		{Type: SplineBezier, Order: 4, Points: make([]geom.Vector3, 8)},
		{Type: SplineNURBS, Order: 3, Endpoint: true, Points: squarePoints()},
	}}
	mesh := quadMesh(nil, false)

	var buf bytes.Buffer
	s := NewSession(&buf, nil)
	if err := s.WriteObject(&Object{Name: "Curve", Curve: curve, Matrix: geom.NewTranslateMatrix4(0, 0, 1)}); err != nil {
		t.Fatal(err)
	}
	if s.Offsets().Vertex != 5 {
		t.Error("vertex counter: ", s.Offsets().Vertex)
	}
	if err := s.WriteObject(&Object{Name: "Quad", Mesh: mesh}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	out := buf.String()
	if lines := linesWithPrefix(out, "deg "); !reflect.DeepEqual(lines, []string{"deg 2"}) {
		t.Error("splines: ", lines)
	}
	if lines := linesWithPrefix(out, "v "); lines[0] != "v 0.000000 0.000000 1.000000" {
		t.Error("transformed points: ", lines)
	}
	// mesh indices continue after the control points
	if lines := linesWithPrefix(out, "#fx "); !reflect.DeepEqual(lines, []string{"#fx 5//1 6//1 7//1 8//1"}) {
		t.Error("faces: ", lines)
	}
}

func TestCurvesAsNURBSDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.CurvesAsNURBS = false
	curve := &Curve{Splines: []*Spline{{Type: SplinePoly, Points: squarePoints()}}}
	var buf bytes.Buffer
	s := NewSession(&buf, opts)
	if err := s.WriteObject(&Object{Name: "Path", Curve: curve}); err == nil {
		t.Error("curve without mesh must be skipped")
	}
}
