// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"errors"
	"strings"
)

const dataURIPrefix = "data:"

// DataURI builds an inline playable source of the form data:<mime>;base64,<payload>.
func DataURI(mimeType, payload string) string {
	return dataURIPrefix + mimeType + ";base64," + payload
}

// ParseDataURI splits a base64 data URI into its MIME type and payload.
// The MIME type may be empty when the URI omits it.
func ParseDataURI(value string) (mimeType, payload string, err error) {
	if !strings.HasPrefix(value, dataURIPrefix) {
		return "", "", decodeErr(ErrInvalidDataURI, "", errors.New("missing data: scheme"))
	}
	header, body, ok := strings.Cut(value[len(dataURIPrefix):], ",")
	if !ok {
		return "", "", decodeErr(ErrInvalidDataURI, "", errors.New("missing payload separator"))
	}
	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return "", "", decodeErr(ErrInvalidDataURI, params[0], errors.New("data uri must be base64 encoded"))
	}
	return strings.Join(params[:len(params)-1], ";"), body, nil
}

// ImageSource resolves a draft image_url into a MIME type and base64 payload.
// Values that are already data URIs keep their declared type; bare base64 is
// assumed to be DefaultImageType.
func ImageSource(raw string) (mimeType, payload string, err error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, dataURIPrefix) {
		return ParseDataURI(raw)
	}
	return DefaultImageType, raw, nil
}
