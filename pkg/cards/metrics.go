// Copyright (C) 2025 SAGE-X Project
//
// This file is part of virgil-cards-go.
//
// virgil-cards-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// virgil-cards-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with virgil-cards-go.  If not, see <https://www.gnu.org/licenses/>.

package cards

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Card Manager metrics
var (
	// Counter for card operations, by operation and result
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "virgil_cards_operations_total",
			Help: "Total number of Card Manager operations, by operation and result.",
		},
		[]string{"operation", "result"}, // result: success, error, verification_failed
	)

	// Counter for access token reloads forced by the service
	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "virgil_cards_token_refresh_total",
			Help: "Total number of forced access token reloads, by reason.",
		},
		[]string{"reason"}, // unauthorized
	)
)

const (
	resultSuccess            = "success"
	resultError              = "error"
	resultVerificationFailed = "verification_failed"
)

func observe(operation string, err error) {
	switch {
	case err == nil:
		operationsTotal.WithLabelValues(operation, resultSuccess).Inc()
	case IsVerificationError(err):
		operationsTotal.WithLabelValues(operation, resultVerificationFailed).Inc()
	default:
		operationsTotal.WithLabelValues(operation, resultError).Inc()
	}
}
