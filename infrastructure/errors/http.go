package errors

import "net/http"

// StatusCode maps an error to the HTTP status returned to API clients.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindParse:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
