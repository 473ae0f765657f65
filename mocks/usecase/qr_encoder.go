package usecase

import "github.com/stretchr/testify/mock"

// MockQrEncoder is a testify mock of the QR encoder.
type MockQrEncoder struct {
	mock.Mock
}

func (m *MockQrEncoder) Encode(text string) (string, error) {
	args := m.Called(text)
	return args.String(0), args.Error(1)
}

func (m *MockQrEncoder) PNG(text string) ([]byte, error) {
	args := m.Called(text)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

// NewMockQrEncoder creates a new MockQrEncoder and asserts its expectations on cleanup.
func NewMockQrEncoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQrEncoder {
	m := &MockQrEncoder{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
