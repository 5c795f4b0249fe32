package upstream

import "context"

// MockGenerator is a function-field test double for Generator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req Request) ([]DecodedImage, error)
}

var _ Generator = (*MockGenerator)(nil)

// Generate calls GenerateFunc when set, otherwise returns a single
// stub image.
func (m *MockGenerator) Generate(ctx context.Context, req Request) ([]DecodedImage, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return []DecodedImage{{Bytes: []byte("stub image bytes"), Mime: "image/png"}}, nil
}
