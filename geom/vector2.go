package geom

// Vector2 is a texture coordinate.
type Vector2 struct {
	X Element
	Y Element
}

func NewVector2(x, y float32) *Vector2 {
	return &Vector2{X: x, Y: y}
}

// NewVector2FlipV converts a top-left origin coordinate to bottom-left origin.
func NewVector2FlipV(arr [2]Element) *Vector2 {
	return &Vector2{X: arr[0], Y: 1 - arr[1]}
}

func (v *Vector2) Add(v2 *Vector2) *Vector2 {
	return &Vector2{X: v.X + v2.X, Y: v.Y + v2.Y}
}

func (v *Vector2) Sub(v2 *Vector2) *Vector2 {
	return &Vector2{X: v.X - v2.X, Y: v.Y - v2.Y}
}

// Cross returns the z component of the 3D cross product.
func (v *Vector2) Cross(v2 *Vector2) Element {
	return v.X*v2.Y - v.Y*v2.X
}

func (v *Vector2) LenSqr() Element {
	return v.X*v.X + v.Y*v.Y
}
