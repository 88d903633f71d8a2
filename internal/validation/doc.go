// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once with the custom tags used by the
// API request bodies:
//
//   - showstatus: interested, watched or notInterested
//   - genreselection: __all__, __none__, empty, or a list of genre ids
//   - filternumber: empty or a decimal number
//
// Errors name fields by their JSON names and convert to the VALIDATION_ERROR
// API error with ToAPIError.
//
//	type setStatusRequest struct {
//	    Status   string `json:"status" validate:"required,showstatus"`
//	    Interest *int   `json:"interest" validate:"omitempty,min=1,max=5"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
