package strom

// Test doubles in the style of func-field mocks: each hook is
// optional and defaults to a no-op.

type fakeTransform struct {
	BaseOperator
	processFunc  func(ev Event, ctx *OperatorContext) error
	initFunc     func(ctx *OperatorContext) error
	shutdownFunc func(ctx *OperatorContext) error
}

func newFakeTransform(name string) *fakeTransform {
	return &fakeTransform{BaseOperator: NewBaseOperator(name)}
}

func (f *fakeTransform) Init(ctx *OperatorContext) error {
	if f.initFunc != nil {
		return f.initFunc(ctx)
	}
	return nil
}

func (f *fakeTransform) Process(ev Event, ctx *OperatorContext) error {
	if f.processFunc != nil {
		return f.processFunc(ev, ctx)
	}
	return nil
}

func (f *fakeTransform) Shutdown(ctx *OperatorContext) error {
	if f.shutdownFunc != nil {
		return f.shutdownFunc(ctx)
	}
	return nil
}

type fakeSource struct {
	BaseSource
	generateFunc func(ctx *OperatorContext) bool
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{BaseSource: NewBaseSource(name)}
}

func (f *fakeSource) Generate(ctx *OperatorContext) bool {
	if f.generateFunc != nil {
		return f.generateFunc(ctx)
	}
	return false
}

type fakeSink struct {
	BaseOperator
	consumeFunc func(ev Event) error
}

func newFakeSink(name string) *fakeSink {
	return &fakeSink{BaseOperator: NewBaseOperator(name)}
}

func (f *fakeSink) Consume(ev Event) error {
	if f.consumeFunc != nil {
		return f.consumeFunc(ev)
	}
	return nil
}
