package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, questionID, category string) (string, bool) {
	args := m.Called(ctx, questionID, category)
	return args.String(0), args.Bool(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}
