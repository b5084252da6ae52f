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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Service error codes returned in {code, message} bodies
const (
	CodeCardNotFound = 10001

	CodeMalformedBody           = 20000
	CodeInvalidCardContent      = 20001
	CodeIdentityMismatch        = 20002
	CodeInvalidSelfSignature    = 20003
	CodeCardExists              = 20004
	CodePreviousCardNotFound    = 20005
	CodePreviousCardSuperseded  = 20006
	CodeServiceSignaturePresent = 20007
	CodeInvalidSearchRequest    = 20008

	CodeMissingAccessToken = 20300
	CodeInvalidAccessToken = 20303
	CodeExpiredAccessToken = 20304
)

// APIError is an error reported to clients as a {code, message} body
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func newAPIError(status, code int, format string, args ...any) *APIError {
	return &APIError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *APIError) {
	writeJSON(w, err.Status, err)
}
