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

// Package virgilcards provides version information for virgil-cards-go and its dependencies.
package virgilcards

import "github.com/sage-x-project/virgil-cards-go/pkg/version"

const (
	// Version is the current version of virgil-cards-go
	Version = version.Version

	// CardVersion is the Virgil Card content version this library writes
	CardVersion = version.CardVersion

	// APIVersion is the Cards service API version this library talks to
	APIVersion = version.APIVersion

	// SAGEVersion is the SAGE core version required
	SAGEVersion = version.SAGEVersion
)

// GetVersionInfo returns detailed version information
func GetVersionInfo() version.Info {
	return version.Get()
}
