package obj

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// curveParams returns the knot values of the parm line. pointCount includes
// the points repeated to close the curve.
func curveParams(deg, pointCount int, endpoints bool) []float64 {
	total := deg + 1 + pointCount
	params := make([]float64, total)
	for i := range params {
		params[i] = float64(i) / float64(total-1)
	}
	if endpoints {
		for i := 0; i <= deg; i++ {
			params[i] = 0
			params[total-1-i] = 1
		}
	}
	return params
}

// curveIndices returns relative control point references for the curv line.
func curveIndices(deg, pointCount int, closed bool) []int {
	indices := make([]int, pointCount)
	for i := range indices {
		indices[i] = -(i + 1)
	}
	if closed {
		if deg == 1 {
			indices = append(indices, -1)
		} else {
			indices = append(indices, indices[:deg]...)
		}
	}
	return indices
}

// writeCurve writes one curve block per supported spline and returns the
// number of control points written.
func (s *Session) writeCurve(o *Object) int {
	mat := s.opts.objectMatrix(o.Matrix)
	total := 0
	for _, sp := range o.Curve.Splines {
		deg := sp.Degree()
		switch {
		case sp.Type == SplineBezier:
			s.log.Warn("bezier curve skipped", zap.String("object", o.Name))
			continue
		case sp.isSurface():
			s.log.Warn("surface skipped", zap.String("object", o.Name))
			continue
		case len(sp.Points) <= deg:
			s.log.Warn("spline has too few points for its order",
				zap.String("object", o.Name), zap.Int("points", len(sp.Points)), zap.Int("degree", deg))
			continue
		}

		for i := range sp.Points {
			p := &sp.Points[i]
			if mat != nil {
				p = mat.ApplyTo(p)
			}
			fmt.Fprintf(s.w, "v %.6f %.6f %.6f\n", p.X, p.Y, p.Z)
		}
		total += len(sp.Points)

		fmt.Fprintf(s.w, "g %s\n", NameCompat(o.Name))
		s.w.WriteString("cstype bspline\n")
		fmt.Fprintf(s.w, "deg %d\n", deg)

		indices := curveIndices(deg, len(sp.Points), sp.Cyclic)
		s.w.WriteString("curv 0.0 1.0")
		for _, i := range indices {
			fmt.Fprintf(s.w, " %d", i)
		}
		s.w.WriteString("\n")

		params := curveParams(deg, len(indices), !sp.Cyclic && sp.Endpoint)
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = fmt.Sprintf("%.6f", p)
		}
		fmt.Fprintf(s.w, "parm u %s\n", strings.Join(parts, " "))
		s.w.WriteString("end\n")
	}
	return total
}
