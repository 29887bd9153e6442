// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package services

import (
	"context"

	"github.com/kukhariev/viewscope/internal/eventbus"
)

// BusService runs the view.recorded consumer under supervision. The
// consumer returns when its subscription closes, which suture treats
// as a failure and restarts.
type BusService struct {
	consumer *eventbus.Consumer
}

// NewBusService wraps the bus consumer as a supervised service.
func NewBusService(consumer *eventbus.Consumer) *BusService {
	return &BusService{consumer: consumer}
}

// Serve implements suture.Service.
func (s *BusService) Serve(ctx context.Context) error {
	return s.consumer.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *BusService) String() string {
	return "bus-consumer"
}
