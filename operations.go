package dockertest

// Operations is the view of the running test environment handed to the
// test body. It borrows the Orbiting engine's lookup tables; it cannot
// mutate engine bookkeeping, only resolve handles.
type Operations struct {
	engine *orbitEngine
}

// Handle resolves a composition's running container by its handle.
// Panics on an unknown or collided handle — this matches the contract
// the harness is built around: a test body that references a handle it
// never declared, or declared twice, has a bug worth failing loudly on.
func (o Operations) Handle(handle string) *RunningContainer {
	c, err := o.engine.resolveHandle(handle)
	if err != nil {
		panic(err.Error())
	}
	return c
}
