package utils

// Guard runs a cleanup when a constructor bails out early. Typical use:
//
//	guard := NewGuard(func() { w.Close() })
//	defer guard.OnFail()
//	...
//	guard.Success()
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a guard that calls onFail unless Success is called first.
func NewGuard(onFail func()) *Guard {
	g := &Guard{}
	g.OnFail = func() {
		if !g.success {
			onFail()
		}
	}
	return g
}

// Success disarms the cleanup.
func (g *Guard) Success() {
	g.success = true
}
