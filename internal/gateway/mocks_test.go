package gateway

import (
	"context"
	"sync"
)

type mockPayPalOrders struct {
	mu sync.Mutex

	createErr     error
	captureErr    error
	captureStatus string

	created  []PayPalOrderRequest
	captured []string
}

func (m *mockPayPalOrders) CreateOrder(_ context.Context, order PayPalOrderRequest) (*PayPalOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, order)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &PayPalOrder{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (m *mockPayPalOrders) CaptureOrder(_ context.Context, orderID string) (*PayPalCapture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captured = append(m.captured, orderID)
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	status := m.captureStatus
	if status == "" {
		status = payPalStatusCompleted
	}
	return &PayPalCapture{OrderID: orderID, Status: status, CaptureID: "CAPTURE-1"}, nil
}
