package usecase

import "github.com/stretchr/testify/mock"

// MockCodeGenerator is a testify mock of the short code generator.
type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockCodeGenerator) ValidateCustom(code string) error {
	args := m.Called(code)
	return args.Error(0)
}

// NewMockCodeGenerator creates a new MockCodeGenerator and asserts its expectations on cleanup.
func NewMockCodeGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCodeGenerator {
	m := &MockCodeGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
