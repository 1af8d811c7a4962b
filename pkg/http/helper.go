package http

import (
	"net/http"
	"strconv"
	"strings"

	"vetslots/pkg/config"
	apperrors "vetslots/pkg/errors"
)

const CallerIDHeader = "X-Caller-Id"

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractCallerID returns the opaque identity resolved by the upstream auth layer.
func ExtractCallerID(r *http.Request) (string, error) {
	callerID := strings.TrimSpace(r.Header.Get(CallerIDHeader))
	if callerID == "" {
		return "", apperrors.InvalidInput("missing " + CallerIDHeader + " header")
	}
	return callerID, nil
}

// RequiredQuery returns a non-empty query parameter or an InvalidInput error.
func RequiredQuery(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", apperrors.InvalidInput("missing query parameter: " + name)
	}
	return value, nil
}

func IntQuery(r *http.Request, name string) (int, error) {
	raw, err := RequiredQuery(r, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return v, nil
}
