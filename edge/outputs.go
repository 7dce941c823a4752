package edge

import "context"

// Outputs holds the sub-outputs of a single multi-output operator, any
// number of them, registered one at a time with Add. Multi-output operators may only connect their
// sub-outputs via ConnectChannel; a direct generator edge requires a single
// output and is not offered here.
type Outputs struct {
	inits     []func(ctx context.Context) error
	finalizes []func()
}

// NewOutputs builds an empty Outputs tuple; use Add to register each
// sub-output's Init/Finalize pair as it is constructed.
func NewOutputs() *Outputs {
	return &Outputs{}
}

// Add registers one sub-output with the tuple, in the order it should be
// initialized and finalized.
func (o *Outputs) Add(out interface{ Init(context.Context) error }, finalize func()) {
	o.inits = append(o.inits, out.Init)
	o.finalizes = append(o.finalizes, finalize)
}

// Init awaits every sub-output's Init sequentially, in registration order,
// stopping at the first error.
func (o *Outputs) Init(ctx context.Context) error {
	for _, init := range o.inits {
		if err := init(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Finalize finalizes every sub-output, in registration order.
func (o *Outputs) Finalize() {
	for _, finalize := range o.finalizes {
		finalize()
	}
}

// AddOutput is a typed convenience wrapper around Add for an *Output[T],
// registering its Init and Finalize methods directly.
func AddOutput[T any](o *Outputs, out *Output[T]) {
	o.Add(out, out.Finalize)
}
