package store

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	// Values holds the current blocks. Seed it to simulate a populated
	// store; leave a key absent to simulate first boot.
	Values map[string]int32

	// Writes records every Write in order.
	Writes []string

	// ReadErr / WriteErr, if set, will be returned by the matching call.
	ReadErr  error
	WriteErr error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Values: make(map[string]int32)}
}

// Read returns the seeded value, or ErrNotFound.
func (f *FakeStore) Read(name string) (int32, error) {
	if f.ReadErr != nil {
		return 0, f.ReadErr
	}
	v, ok := f.Values[name]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

// Write records and stores the value.
func (f *FakeStore) Write(name string, v int32) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if f.Values == nil {
		f.Values = make(map[string]int32)
	}
	f.Values[name] = v
	f.Writes = append(f.Writes, name)
	return nil
}
