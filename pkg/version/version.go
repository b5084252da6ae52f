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

// Package version holds the library and protocol versions.
package version

const (
	// Version is the current version of virgil-cards-go
	Version = "1.0.0-dev"

	// CardVersion is the card content version produced by this library
	CardVersion = "5.0"

	// APIVersion is the Cards service API version
	APIVersion = "v5"

	// SAGEVersion is the SAGE core version required
	SAGEVersion = "1.3.1"
)

// Info contains detailed version information
type Info struct {
	Version     string `json:"version"`
	CardVersion string `json:"card_version"`
	APIVersion  string `json:"api_version"`
	SAGEVersion string `json:"sage_version"`
}

// Get returns detailed version information
func Get() Info {
	return Info{
		Version:     Version,
		CardVersion: CardVersion,
		APIVersion:  APIVersion,
		SAGEVersion: SAGEVersion,
	}
}

// UserAgent returns the User-Agent sent by the HTTP transport
func UserAgent() string {
	return "virgil-cards-go/" + Version
}
